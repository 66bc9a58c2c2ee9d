package commands

import "kioskassist/lib/telemetry"

var tracer = telemetry.Tracer("kioskassist.cmd.kiosk-cli")
