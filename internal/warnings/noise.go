package warnings

// ApplyNoiseControl drops suppressible non-critical warnings when quiet is set.
func ApplyNoiseControl(items []Warning, quiet bool) []Warning {
	if len(items) == 0 {
		return nil
	}
	if !quiet {
		return append([]Warning(nil), items...)
	}
	filtered := make([]Warning, 0, len(items))
	for _, item := range items {
		if item.NoiseSuppressible && item.severityOrDefault() != SeverityCritical {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered
}
