package extract

import "kioskassist/lib/telemetry"

var tracer = telemetry.Tracer("kioskassist.lib.scrapers.webkiosk.extract")
var meter = telemetry.Meter("kioskassist.lib.scrapers.webkiosk.extract")

var anomalyCounter, _ = meter.Int64Counter(
	"webkiosk.extract.anomalies",
)
