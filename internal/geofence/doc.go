// Package geofence detects when an observer enters or leaves circular regions of interest.
//
// # Engine
//
// An [Engine] is built once from a fixed, ordered set of [Region] values and keeps a single
// "inside" flag per region, starting outside. Each call to [Engine.Update] measures the
// great-circle distance from the observer [Position] to every region centre and returns a
// [TransitionEvent] only for the regions whose containment flipped:
//
//	outside → inside : [Entered]
//	inside  → outside: [Exited]
//
// Events come back in region order. Repeating a position never repeats an event.
//
// # Distance
//
// [Distance] is the haversine formula on a sphere of radius [EarthRadiusMeters].
// A position exactly [Region.RadiusMeters] away is inside.
//
// # Malformed input
//
// Coordinates are not range-checked. NaN propagates through the arithmetic and a NaN
// distance never compares as inside, so a region that was inside reports [Exited].
//
// # Concurrency
//
// The engine does no locking. Callers feeding positions from several goroutines must
// serialize calls to [Engine.Update] (tasks.Monitor does this).
package geofence
