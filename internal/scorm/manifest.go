package scorm

import (
	"encoding/xml"
)

// Manifest imsmanifest.xml 解析结果，作为包的元数据整体入库
type Manifest struct {
	SchemaVersion string         `json:"schemaVersion,omitempty"`
	DefaultOrg    string         `json:"defaultOrg,omitempty"`
	Organizations []Organization `json:"organizations,omitempty"`
	Resources     []Resource     `json:"resources,omitempty"`
}

type Organization struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title,omitempty"`
	Items      []Item `json:"items,omitempty"`
}

type Item struct {
	Identifier    string `json:"identifier"`
	IdentifierRef string `json:"identifierRef,omitempty"`
	Title         string `json:"title,omitempty"`
	Items         []Item `json:"items,omitempty"`
}

type Resource struct {
	Identifier string `json:"identifier"`
	Type       string `json:"type,omitempty"`
	ScormType  string `json:"scormType,omitempty"`
	Href       string `json:"href,omitempty"`
}

type imsManifest struct {
	XMLName  xml.Name `xml:"manifest"`
	Metadata struct {
		SchemaVersion string `xml:"schemaversion"`
	} `xml:"metadata"`
	Organizations struct {
		Default string            `xml:"default,attr"`
		Orgs    []imsOrganization `xml:"organization"`
	} `xml:"organizations"`
	Resources []imsResource `xml:"resources>resource"`
}

type imsOrganization struct {
	Identifier string    `xml:"identifier,attr"`
	Title      string    `xml:"title"`
	Items      []imsItem `xml:"item"`
}

type imsItem struct {
	Identifier    string    `xml:"identifier,attr"`
	IdentifierRef string    `xml:"identifierref,attr"`
	Title         string    `xml:"title"`
	Items         []imsItem `xml:"item"`
}

type imsResource struct {
	Identifier string `xml:"identifier,attr"`
	Type       string `xml:"type,attr"`
	ScormType  string `xml:"scormtype,attr"`
	Href       string `xml:"href,attr"`
}

// ParseManifest 结构化解析 imsmanifest.xml
func ParseManifest(data []byte) (*Manifest, error) {
	var raw imsManifest
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	mf := &Manifest{
		SchemaVersion: raw.Metadata.SchemaVersion,
		DefaultOrg:    raw.Organizations.Default,
	}
	for _, o := range raw.Organizations.Orgs {
		mf.Organizations = append(mf.Organizations, Organization{
			Identifier: o.Identifier,
			Title:      o.Title,
			Items:      convertItems(o.Items),
		})
	}
	for _, r := range raw.Resources {
		mf.Resources = append(mf.Resources, Resource{
			Identifier: r.Identifier,
			Type:       r.Type,
			ScormType:  r.ScormType,
			Href:       r.Href,
		})
	}
	return mf, nil
}

func convertItems(in []imsItem) []Item {
	out := make([]Item, 0, len(in))
	for _, it := range in {
		out = append(out, Item{
			Identifier:    it.Identifier,
			IdentifierRef: it.IdentifierRef,
			Title:         it.Title,
			Items:         convertItems(it.Items),
		})
	}
	return out
}

// EntryPoint 确定启动文件：默认 organization 的第一个带 identifierref 的
// item 所引用的 resource 的 href；organization 缺失或引用落空时退回
// 第一个带 href 的 resource；全部落空返回空串，由调用方决定兜底文件名。
func (m *Manifest) EntryPoint() string {
	if org := m.defaultOrganization(); org != nil {
		if ref := firstIdentifierRef(org.Items); ref != "" {
			for _, r := range m.Resources {
				if r.Identifier == ref && r.Href != "" {
					return r.Href
				}
			}
		}
	}
	for _, r := range m.Resources {
		if r.Href != "" {
			return r.Href
		}
	}
	return ""
}

func (m *Manifest) defaultOrganization() *Organization {
	if len(m.Organizations) == 0 {
		return nil
	}
	if m.DefaultOrg != "" {
		for i := range m.Organizations {
			if m.Organizations[i].Identifier == m.DefaultOrg {
				return &m.Organizations[i]
			}
		}
	}
	return &m.Organizations[0]
}

func firstIdentifierRef(items []Item) string {
	for _, it := range items {
		if it.IdentifierRef != "" {
			return it.IdentifierRef
		}
		if ref := firstIdentifierRef(it.Items); ref != "" {
			return ref
		}
	}
	return ""
}
