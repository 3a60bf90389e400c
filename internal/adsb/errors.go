package adsb

import "errors"

var (
	errUnknownDF  = errors.New(ErrUnknownDF.String())
	errBadCRC     = errors.New(ErrBadCRC.String())
	errAmbiguous  = errors.New(ErrAmbiguousCorrection.String())
	errShortFrame = errors.New(ErrShortFrame.String())
)
