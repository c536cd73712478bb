package reconcile

// Key patterns from §6, all scoped under the given tenant id so that
// operations on one tenant can never touch another tenant's keys (§5
// "Isolation", §8 property 8).

func eventStateKey(tenant, eventKey string) string {
	return tenant + ":event:" + eventKey
}

func snapshotKeysKey(tenant string) string {
	return tenant + ":snapshot:keys"
}

func snapshotLatestKey(tenant string) string {
	return tenant + ":snapshot:latest"
}

func snapshotUpstreamHashKey(tenant string) string {
	return tenant + ":snapshot:upstream_hash"
}
