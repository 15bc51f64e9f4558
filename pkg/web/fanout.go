package web

import "github.com/teslashibe/go-soccerbot/pkg/tracking"

// Fanout publishes to every publisher in order. All are tried; the first
// error is returned.
type Fanout []tracking.Publisher

func (f Fanout) PublishPose(p tracking.Pose) error {
	var first error
	for _, pub := range f {
		if err := pub.PublishPose(p); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f Fanout) PublishFrame(jpeg []byte) error {
	var first error
	for _, pub := range f {
		if err := pub.PublishFrame(jpeg); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var (
	_ tracking.Publisher = Fanout(nil)
	_ tracking.Publisher = (*Server)(nil)
)
