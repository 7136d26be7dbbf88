// Package location supplies observer positions and region definitions to the monitor.
//
// A [Source] streams [geofence.Position] values until it is exhausted or its context ends.
// [StaticSource] replays a fixed slice and [FileSource] reads a CSV track of "lat,lon" rows.
//
// Region sets are read by [LoadRegions] from TOML, YAML or JSON files, using the same field names
// as the [[geofence.regions]] table of the main config.
package location
