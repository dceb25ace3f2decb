package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"roomchat/chat"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}

func SetupLogger(cfg *Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

type ConnIPLogger struct {
	zerolog zerolog.Logger
}

func GetConnIPLogger(ip string, id chat.ConnID) ConnIPLogger {
	return ConnIPLogger{log.With().Str("ip", ip).Str("conn", string(id)).Logger()}
}

func (l ConnIPLogger) Connected() {
	l.zerolog.Info().Msg("Connected")
}

func (l ConnIPLogger) Disconnected() {
	l.zerolog.Info().Msg("Disconnected")
}

func (l ConnIPLogger) InvalidMessage(err error) {
	l.zerolog.Debug().Err(err).Msg("Skipping invalid message")
}

func (l ConnIPLogger) PayloadTooLarge() {
	l.zerolog.Warn().Msg("Payload too large, closing connection")
}

func (l ConnIPLogger) Ignored(err error) {
	l.zerolog.Debug().Err(err).Msg("Ignored request")
}

func (l ConnIPLogger) Refused(err error) {
	l.zerolog.Warn().Err(err).Msg("Refused connection")
}

func (l ConnIPLogger) TimedOut() {
	l.zerolog.Info().Msg("Peer stopped responding, closing connection")
}

func (l ConnIPLogger) SendBufferFull() {
	l.zerolog.Warn().Msg("Send buffer full, closing connection")
}

func LogStartedServer(port string) {
	log.Info().Msgf("Starting server on port %v", port)
}

func LogShuttingDown() {
	log.Info().Msg("Shutting down")
}

func LogErrorWhileUpgradingHTTP(err error) {
	log.Error().Err(err).Msg("Error while upgrading HTTP")
}

func LogBlockedOrigin(origin string) {
	log.Warn().Str("origin", origin).Msg("Blocked websocket from disallowed origin")
}

func LogRejectedAdminToken(ip string, err error) {
	log.Warn().Err(err).Str("ip", ip).Msg("Rejected admin token")
}
