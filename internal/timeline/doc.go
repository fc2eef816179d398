// Package timeline slices a recording's duration into fixed windows and
// formats millisecond offsets as SRT timestamps.
package timeline
