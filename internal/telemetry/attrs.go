package telemetry

import "go.opentelemetry.io/otel/attribute"

func roundCurrentAttr(current int) attribute.KeyValue {
	return attribute.Int("codexpotter.round.current", current)
}

func roundTotalAttr(total int) attribute.KeyValue {
	return attribute.Int("codexpotter.round.total", total)
}

func codexBinAttr(codexBin string) attribute.KeyValue {
	return attribute.String("codexpotter.codex_bin", codexBin)
}
