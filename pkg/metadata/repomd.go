package metadata

import (
	"context"
	"encoding/xml"

	"github.com/e2llm/repomd-janitor/pkg/backend"
)

const RepoNamespace = "http://linux.duke.edu/metadata/repo"

// Fixed manifest location inside a repository root.
const (
	RepomdName = "repomd.xml"
	RepomdPath = "repodata/" + RepomdName
)

type RepoMD struct {
	XMLName  xml.Name   `xml:"repomd"`
	Xmlns    string     `xml:"xmlns,attr"`
	Revision string     `xml:"revision"`
	Data     []RepoData `xml:"data"`
}

type RepoData struct {
	Type         string    `xml:"type,attr"`
	Checksum     Checksum  `xml:"checksum"`
	OpenChecksum *Checksum `xml:"open-checksum,omitempty"`
	Location     Location  `xml:"location"`
	Timestamp    int64     `xml:"timestamp"`
	Size         int64     `xml:"size"`
	OpenSize     int64     `xml:"open-size"`
}

type Checksum struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

// Location points at a metadata file. Base, when set, places the file outside
// the repository's own repodata directory.
type Location struct {
	Href string `xml:"href,attr"`
	Base string `xml:"base,attr,omitempty"`
}

// LoadRepoMD reads and unmarshals repodata/repomd.xml from backend.
func LoadRepoMD(ctx context.Context, b backend.Backend) (RepoMD, error) {
	data, err := b.ReadFile(ctx, RepomdPath)
	if err != nil {
		return RepoMD{}, err
	}
	return ParseRepoMD(data)
}

// ParseRepoMD unmarshals repomd XML from raw bytes.
func ParseRepoMD(data []byte) (RepoMD, error) {
	var md RepoMD
	if err := xml.Unmarshal(data, &md); err != nil {
		return RepoMD{}, err
	}
	return md, nil
}

func MarshalRepoMD(md RepoMD) ([]byte, error) {
	if md.Xmlns == "" {
		md.Xmlns = RepoNamespace
	}
	output, err := xml.MarshalIndent(md, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), output...), nil
}
