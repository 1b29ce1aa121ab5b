// Package playback paces rendered frames onto a terminal.
//
// An [Engine] drives one [Session] through the states
//
//	Idle -> Priming -> Playing -> Finished | Interrupted
//
// Priming shows a short notice and pauses once before the first frame.
// While playing, each frame pulled from the [Source] advances the session
// counter; when the source runs faster than the target rate only every
// floor(source/target)-th frame is rendered. Before each render the engine
// checks a single cancellation point that combines the context and
// [Terminal.PollKeypress]. Render time is subtracted from the per-frame
// delay so pacing does not drift with render cost.
//
// Frames that fail to decode or render are logged and skipped. Cursor
// visibility is restored exactly once on every exit path after it was
// hidden.
package playback
