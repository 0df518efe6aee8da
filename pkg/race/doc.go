// Package race arbitrates concurrent fetch attempts into a single outcome
// per request.
//
// For each request the coordinator starts one attempt per configured
// endpoint, staggered by rank, and takes the first accepted response in
// wall-clock completion order. Winning commits through a mutex-guarded
// write-once slot, so at most one attempt ever surfaces as the winner even
// when several complete at the same instant. Once a winner commits, every
// other attempt is cancelled and closes its connection.
//
// Rejected responses never win, but the first one seen is retained: when the
// race deadline elapses with no winner, it becomes the relayed fallback if
// the policy enables that, and the race reports no response otherwise.
package race
