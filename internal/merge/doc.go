// Package merge concatenates the harvested clips into the single daily
// video using ffmpeg's concat demuxer, preserving per-clip duration and
// frame order with no transitions.
package merge
