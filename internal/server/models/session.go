package models

import "time"

// StreamSession is one broadcast session for a user: opened on stream start,
// closed (EndedAt set) on stop. At most one open session per user, enforced
// by a partial unique index.
type StreamSession struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	StartedAt     time.Time  `json:"startedAt"`
	EndedAt       *time.Time `json:"endedAt,omitempty"`
	PeakViewers   int        `json:"peakViewers"`
	UniqueViewers int        `json:"uniqueViewers"`
	Messages      int64      `json:"messages"`
	AvgBitrate    int        `json:"avgBitrate,omitempty"`
	Resolution    string     `json:"resolution,omitempty"`
}
