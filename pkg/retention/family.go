package retention

import "strings"

// Family identifies one of the six repodata index kinds tracked by the
// retention policy.
type Family int

const (
	FamilyPrimaryXML Family = iota
	FamilyPrimaryDB
	FamilyFilelistsXML
	FamilyFilelistsDB
	FamilyOtherXML
	FamilyOtherDB
	familyCount
)

var familyMarkers = [familyCount]string{
	FamilyPrimaryXML:   "primary.xml",
	FamilyPrimaryDB:    "primary.sqlite",
	FamilyFilelistsXML: "filelists.xml",
	FamilyFilelistsDB:  "filelists.sqlite",
	FamilyOtherXML:     "other.xml",
	FamilyOtherDB:      "other.sqlite",
}

func (f Family) String() string {
	if f < 0 || f >= familyCount {
		return "unknown"
	}
	return familyMarkers[f]
}

// Classify buckets a repodata filename into a metadata family. The final
// dot-delimited extension (usually a compression suffix) is stripped and the
// remainder is suffix-matched against the family markers, so
// "0287d5-primary.xml.gz" classifies as primary.xml. Filenames without a dot
// cannot be classified. The suffix test mimics the detection of the original
// createrepo, including its blind spots.
func Classify(name string) (Family, bool) {
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 {
		return 0, false
	}
	trimmed := name[:dot]
	for f, marker := range familyMarkers {
		if strings.HasSuffix(trimmed, marker) {
			return Family(f), true
		}
	}
	return 0, false
}
