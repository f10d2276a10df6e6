package constants

// Redis key formats
const (
	KeyLocationRecord = "geo:%s:loc:%s" // Format: geo:{index}:loc:{key}
	KeyLocationIndex  = "geo:%s:idx"    // Format: geo:{index}:idx, sorted set of {geohash}:{key}

	// Separates geohash and key in index members.
	IndexMemberSeparator = ":"
	// Appended to a range end so longer members sharing its prefix match.
	// It sorts after every base32 character and the separator.
	RangeEndSuffix = "~"
)
