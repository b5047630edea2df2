// Package sink delivers rendered audio slices to their destinations: a WAV
// file written atomically at the end of a run, the local speaker via oto, and
// a WebSocket hub that streams binary PCM frames to connected listeners.
//
// Live sinks never block the render loop. The speaker uses a fixed-depth
// queue that evicts the oldest slice when full, and the hub disconnects
// clients whose outgoing buffers back up.
package sink
