package core

import (
	"kioskassist/lib/restyutil"
	"kioskassist/lib/telemetry"
)

var tracer = telemetry.Tracer("kioskassist.lib.scrapers.webkiosk.core")
var meter = telemetry.Meter("kioskassist.lib.scrapers.webkiosk.core")

var loginCounter, _ = meter.Int64Counter(
	"webkiosk.login.attempts",
)

var restyInstrumentOutput restyutil.InstrumentOutput

func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}
