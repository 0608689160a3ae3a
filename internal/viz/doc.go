// Package viz draws trajectories in the terminal.
//
//   - [Canvas]: braille dot grid with line and disc primitives
//   - [Frame]: uniform world-to-dot projection
//   - [RenderOrbits]: static x-y plot of every body's path
//   - [Replay]: Bubble Tea model that plays a stored run back
//
// # Replay keys
//
//	Space      - Play/Pause
//	Left/Right - Step one recorded point
//	Home/End   - Jump to start/end
//	+/-        - Double/halve playback speed
//	R          - Restart
//	T          - Cycle colour themes
//	?          - Help
package viz
