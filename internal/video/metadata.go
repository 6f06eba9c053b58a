// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Video metadata related constructs.

package video

// Metadata type contains useful video stream metadata.
type Metadata struct {
	CodecName string  `json:"codec_name,omitempty"`
	PixFmt    string  `json:"pix_fmt,omitempty"`
	FrameRate string  `json:"r_frame_rate,omitempty"`
	Duration  float64 `json:"duration,omitempty,string"`
	Width     int     `json:"width,omitempty"`
	Height    int     `json:"height,omitempty"`
	BitRate   int     `json:"bit_rate,omitempty,string"`
	// FrameCount is container declared frame count, 0 when unknown.
	FrameCount uint64 `json:"nb_frames,omitempty,string"`
}

// FrameSize returns byte size of a single RGB24 frame.
func (m Metadata) FrameSize() int {
	return m.Width * m.Height * 3
}
