package log

import (
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/level"
	"github.com/mongodb/grip/send"
	"github.com/pkg/errors"
)

const DefaultLevel = "info"

// Setup sends grip output to standard error under name, dropping messages
// below threshold. An empty threshold means DefaultLevel.
func Setup(name, threshold string) error {
	if threshold == "" {
		threshold = DefaultLevel
	}
	l := level.FromString(threshold)
	if l == level.Invalid {
		return errors.Errorf("unknown log level '%s'", threshold)
	}
	if err := grip.SetSender(send.MakeErrorLogger()); err != nil {
		return errors.Wrap(err, "installing log sender")
	}
	grip.SetName(name)

	sender := grip.GetSender()
	info := sender.Level()
	info.Threshold = l
	return errors.Wrap(sender.SetLevel(info), "setting log level")
}
