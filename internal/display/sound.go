package display

import (
	"os/exec"

	"github.com/rs/zerolog"
)

// Player plays the mirror activation sound. Playback failures are
// swallowed; the display never degrades because a speaker is missing.
type Player interface {
	Play()
}

// ExecPlayer shells out to the system audio command.
type ExecPlayer struct {
	command string
	file    string
	logger  zerolog.Logger
}

func NewExecPlayer(command, file string, logger *zerolog.Logger) *ExecPlayer {
	return &ExecPlayer{
		command: command,
		file:    file,
		logger:  logger.With().Str("component", "sound-player").Logger(),
	}
}

func (p *ExecPlayer) Play() {
	go func() {
		if err := exec.Command(p.command, p.file).Run(); err != nil {
			p.logger.Warn().Err(err).Str("file", p.file).Msg("activation sound failed")
			return
		}
		p.logger.Debug().Str("file", p.file).Msg("activation sound played")
	}()
}
