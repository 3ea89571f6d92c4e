package scorm

import (
	"testing"
)

const sampleManifest = `<?xml version="1.0" encoding="UTF-8"?>
<manifest identifier="com.example.course" version="1.0"
    xmlns="http://www.imsproject.org/xsd/imscp_rootv1p1p2">
  <metadata>
    <schema>ADL SCORM</schema>
    <schemaversion>1.2</schemaversion>
  </metadata>
  <organizations default="ORG-1">
    <organization identifier="ORG-1">
      <title>Sample Course</title>
      <item identifier="ITEM-1" identifierref="RES-1">
        <title>Lesson 1</title>
      </item>
    </organization>
  </organizations>
  <resources>
    <resource identifier="RES-1" type="webcontent" adlcp:scormtype="sco" href="lesson1/start.html" xmlns:adlcp="http://www.adlnet.org/xsd/adlcp_rootv1p2"/>
    <resource identifier="RES-2" type="webcontent" href="shared/style.css"/>
  </resources>
</manifest>`

func TestParseManifest(t *testing.T) {
	mf, err := ParseManifest([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}

	if mf.SchemaVersion != "1.2" {
		t.Errorf("SchemaVersion = %q, want 1.2", mf.SchemaVersion)
	}
	if mf.DefaultOrg != "ORG-1" {
		t.Errorf("DefaultOrg = %q, want ORG-1", mf.DefaultOrg)
	}
	if len(mf.Organizations) != 1 {
		t.Fatalf("got %d organizations, want 1", len(mf.Organizations))
	}
	org := mf.Organizations[0]
	if org.Title != "Sample Course" {
		t.Errorf("org title = %q", org.Title)
	}
	if len(org.Items) != 1 || org.Items[0].IdentifierRef != "RES-1" {
		t.Errorf("unexpected items: %+v", org.Items)
	}
	if len(mf.Resources) != 2 {
		t.Fatalf("got %d resources, want 2", len(mf.Resources))
	}
	if mf.Resources[0].ScormType != "sco" {
		t.Errorf("scormType = %q, want sco", mf.Resources[0].ScormType)
	}
}

func TestEntryPointFromDefaultOrganization(t *testing.T) {
	mf, err := ParseManifest([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if got := mf.EntryPoint(); got != "lesson1/start.html" {
		t.Errorf("EntryPoint = %q, want lesson1/start.html", got)
	}
}

func TestEntryPointNestedItems(t *testing.T) {
	mf := &Manifest{
		DefaultOrg: "ORG-1",
		Organizations: []Organization{{
			Identifier: "ORG-1",
			Items: []Item{{
				Identifier: "MODULE-1",
				Items: []Item{{
					Identifier:    "ITEM-1",
					IdentifierRef: "RES-9",
				}},
			}},
		}},
		Resources: []Resource{
			{Identifier: "RES-9", Href: "deep/entry.html"},
		},
	}
	if got := mf.EntryPoint(); got != "deep/entry.html" {
		t.Errorf("EntryPoint = %q, want deep/entry.html", got)
	}
}

func TestEntryPointFallsBackToFirstResource(t *testing.T) {
	mf := &Manifest{
		Resources: []Resource{
			{Identifier: "RES-A"},
			{Identifier: "RES-B", Href: "content/index.html"},
		},
	}
	if got := mf.EntryPoint(); got != "content/index.html" {
		t.Errorf("EntryPoint = %q, want content/index.html", got)
	}
}

func TestEntryPointDanglingReference(t *testing.T) {
	// item 引用了不存在的 resource，应退回第一个带 href 的 resource
	mf := &Manifest{
		Organizations: []Organization{{
			Identifier: "ORG-1",
			Items:      []Item{{Identifier: "ITEM-1", IdentifierRef: "MISSING"}},
		}},
		Resources: []Resource{
			{Identifier: "RES-1", Href: "fallback.html"},
		},
	}
	if got := mf.EntryPoint(); got != "fallback.html" {
		t.Errorf("EntryPoint = %q, want fallback.html", got)
	}
}

func TestEntryPointEmptyManifest(t *testing.T) {
	mf := &Manifest{}
	if got := mf.EntryPoint(); got != "" {
		t.Errorf("EntryPoint = %q, want empty", got)
	}
}

func TestParseManifestInvalidXML(t *testing.T) {
	if _, err := ParseManifest([]byte("<manifest><unclosed")); err == nil {
		t.Error("expected error for malformed XML")
	}
}
