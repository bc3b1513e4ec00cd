// Package model holds the data shapes shared across validation, provider
// resolution, pipeline stages, and job orchestration: Brief, PlanSpec,
// VoiceSpec, and RenderSpec. It has no dependents of its own so any
// package may import it without risking an import cycle.
package model

import "strings"

type AspectRatio string

const (
	Aspect16x9 AspectRatio = "16:9"
	Aspect9x16 AspectRatio = "9:16"
	Aspect1x1  AspectRatio = "1:1"
	Aspect4x3  AspectRatio = "4:3"
)

// Brief is the user's stated intent for a generated video.
type Brief struct {
	Topic       string      `json:"topic"`
	Audience    string      `json:"audience,omitempty"`
	Goal        string      `json:"goal,omitempty"`
	Tone        string      `json:"tone,omitempty"`
	Language    string      `json:"language,omitempty"`
	AspectRatio AspectRatio `json:"aspectRatio"`
}

// TrimmedTopic returns Topic with leading/trailing whitespace removed.
func (b Brief) TrimmedTopic() string {
	return strings.TrimSpace(b.Topic)
}

type Pacing string

const (
	PacingSlow   Pacing = "slow"
	PacingNormal Pacing = "normal"
	PacingFast   Pacing = "fast"
)

type Density string

const (
	DensitySparse Density = "sparse"
	DensityNormal Density = "normal"
	DensityDense  Density = "dense"
)

// PlanSpec shapes the pipeline: how long the result should run and how
// the content should feel.
type PlanSpec struct {
	TargetDurationSeconds float64 `json:"targetDurationSeconds"`
	Pacing                Pacing  `json:"pacing"`
	Density               Density `json:"density"`
	Style                 string  `json:"style"`
}

// VoiceSpec configures narration synthesis.
type VoiceSpec struct {
	Voice              string  `json:"voice"`
	Rate               float64 `json:"rate"`
	Pitch              float64 `json:"pitch"`
	InterSentencePause float64 `json:"interSentencePause"`
}

// RenderSpec configures final encoding.
type RenderSpec struct {
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Container     string `json:"container"`
	VideoBitrate  int    `json:"videoBitrate"`
	AudioBitrate  int    `json:"audioBitrate"`
	FPS           int    `json:"fps"`
	Codec         string `json:"codec"`
	QualityLevel  int    `json:"qualityLevel"`
	SceneCut      bool   `json:"sceneCut"`
}
