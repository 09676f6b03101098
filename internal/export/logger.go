package export

import "github.com/rs/zerolog"

var exportLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	exportLogger = l
}
