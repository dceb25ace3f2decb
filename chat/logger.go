package chat

import "github.com/rs/zerolog"

type roomLogger struct {
	zerolog zerolog.Logger
}

func (h *Hub) roomLogger(id ConnID, room string) roomLogger {
	return roomLogger{h.logger.With().Str("conn", string(id)).Str("room", room).Logger()}
}

func (l roomLogger) CreatedRoom() {
	l.zerolog.Info().Msg("Created room")
}

func (l roomLogger) RemovingRoom() {
	l.zerolog.Info().Msg("Removing room")
}

func (l roomLogger) JoinedRoom(username string) {
	l.zerolog.Info().Str("username", username).Msg("Joined room")
}

func (l roomLogger) LeftRoom(username string) {
	l.zerolog.Info().Str("username", username).Msg("Left room")
}

func (l roomLogger) HostChanged(host ConnID) {
	l.zerolog.Info().Str("host", string(host)).Msg("Host changed")
}

func (l roomLogger) Kicked(target ConnID) {
	l.zerolog.Info().Str("target", string(target)).Msg("Kicked member")
}

func (l roomLogger) PasswordChanged(locked bool) {
	l.zerolog.Info().Bool("locked", locked).Msg("Password changed")
}

func (l roomLogger) PasswordRejected() {
	l.zerolog.Info().Msg("Wrong password")
}
