// Package intel converts machine-readable threat-intel feeds into plain
// text suitable for embedding. Three formats are recognized, tried in
// order: CVE records, the CISA Known Exploited Vulnerabilities catalog,
// and STIX bundles/objects as a structured fallback. The first matching
// rule wins.
package intel

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Summarize renders a JSON threat-intel document as one descriptive line
// per object. Unknown shapes fall through to the STIX-style generic
// summarizer rather than failing, so loosely structured feeds still yield
// indexable text.
func Summarize(data []byte) (string, error) {
	// A top-level array can only be a list of STIX-style objects.
	trimmed := strings.TrimLeftFunc(string(data), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if strings.HasPrefix(trimmed, "[") {
		var objects []stixObject
		if err := json.Unmarshal(data, &objects); err != nil {
			return "", fmt.Errorf("parsing JSON array: %w", err)
		}
		return summarizeSTIXObjects(objects), nil
	}

	var probe struct {
		CVEMetadata     json.RawMessage `json:"cveMetadata"`
		DataType        string          `json:"dataType"`
		Vulnerabilities json.RawMessage `json:"vulnerabilities"`
		CatalogVersion  json.RawMessage `json:"catalogVersion"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return "", fmt.Errorf("parsing JSON: %w", err)
	}

	switch {
	case probe.CVEMetadata != nil || probe.DataType == "CVE_RECORD":
		return summarizeCVE(data)
	case probe.Vulnerabilities != nil && probe.CatalogVersion != nil:
		return summarizeKEV(data)
	default:
		return summarizeSTIX(data)
	}
}

// cveRecord mirrors the fields of a CVE JSON 5.x record we report on.
type cveRecord struct {
	CVEMetadata struct {
		CVEID string `json:"cveId"`
		State string `json:"state"`
	} `json:"cveMetadata"`
	Containers struct {
		CNA struct {
			Descriptions []struct {
				Value string `json:"value"`
			} `json:"descriptions"`
			Affected []struct {
				Vendor  string `json:"vendor"`
				Product string `json:"product"`
			} `json:"affected"`
			Solutions []struct {
				Value string `json:"value"`
			} `json:"solutions"`
		} `json:"cna"`
	} `json:"containers"`
}

func summarizeCVE(data []byte) (string, error) {
	var record cveRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return "", fmt.Errorf("parsing CVE record: %w", err)
	}

	cveID := record.CVEMetadata.CVEID
	if cveID == "" {
		cveID = "Unknown CVE"
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("CVE ID: %s | State: %s", cveID, record.CVEMetadata.State))

	for _, d := range record.Containers.CNA.Descriptions {
		if d.Value != "" {
			lines = append(lines, "Description: "+d.Value)
		}
	}

	for _, a := range record.Containers.CNA.Affected {
		vendor := a.Vendor
		if vendor == "" {
			vendor = "Unknown"
		}
		product := a.Product
		if product == "" {
			product = "Unknown"
		}
		lines = append(lines, fmt.Sprintf("Affected Product: %s %s", vendor, product))
	}

	for _, s := range record.Containers.CNA.Solutions {
		if s.Value != "" {
			lines = append(lines, "Solution: "+s.Value)
		}
	}

	return strings.Join(lines, "\n"), nil
}

// kevCatalog mirrors the CISA KEV catalog shape.
type kevCatalog struct {
	Title           string `json:"title"`
	Vulnerabilities []struct {
		CVEID            string `json:"cveID"`
		VendorProject    string `json:"vendorProject"`
		Product          string `json:"product"`
		ShortDescription string `json:"shortDescription"`
		DateAdded        string `json:"dateAdded"`
		RequiredAction   string `json:"requiredAction"`
	} `json:"vulnerabilities"`
}

func summarizeKEV(data []byte) (string, error) {
	var catalog kevCatalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return "", fmt.Errorf("parsing KEV catalog: %w", err)
	}

	title := catalog.Title
	if title == "" {
		title = "CISA KEV Catalog"
	}

	lines := []string{"Catalog: " + title}
	for _, v := range catalog.Vulnerabilities {
		cveID := v.CVEID
		if cveID == "" {
			cveID = "Unknown CVE"
		}
		vendor := v.VendorProject
		if vendor == "" {
			vendor = "Unknown Vendor"
		}
		product := v.Product
		if product == "" {
			product = "Unknown Product"
		}

		entry := fmt.Sprintf("CVE: %s | Vendor: %s | Product: %s | Date Added: %s",
			cveID, vendor, product, v.DateAdded)
		if v.ShortDescription != "" {
			entry += " | Description: " + v.ShortDescription
		}
		if v.RequiredAction != "" {
			entry += " | Required Action: " + v.RequiredAction
		}
		lines = append(lines, entry)
	}

	return strings.Join(lines, "\n"), nil
}

// stixObject holds the subset of STIX Domain Object fields worth
// surfacing to the model.
type stixObject struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Pattern     string `json:"pattern"`
	ValidFrom   string `json:"valid_from"`
}

func summarizeSTIX(data []byte) (string, error) {
	var bundle struct {
		Type    string       `json:"type"`
		Objects []stixObject `json:"objects"`
	}
	if err := json.Unmarshal(data, &bundle); err != nil {
		return "", fmt.Errorf("parsing STIX document: %w", err)
	}

	objects := bundle.Objects
	if len(objects) == 0 && bundle.Type != "" {
		// Not a bundle: treat the whole document as a single object.
		var single stixObject
		if err := json.Unmarshal(data, &single); err != nil {
			return "", fmt.Errorf("parsing STIX object: %w", err)
		}
		objects = []stixObject{single}
	}

	return summarizeSTIXObjects(objects), nil
}

func summarizeSTIXObjects(objects []stixObject) string {
	lines := make([]string, 0, len(objects))
	for _, obj := range objects {
		objType := obj.Type
		if objType == "" {
			objType = "unknown"
		}
		name := obj.Name
		if name == "" {
			name = "Unnamed"
		}

		entry := fmt.Sprintf("STIX Object: %s | Name: %s", strings.ToUpper(objType), name)
		if obj.Description != "" {
			entry += " | Description: " + obj.Description
		}
		if obj.Pattern != "" {
			entry += " | Pattern: " + obj.Pattern
		}
		if objType == "indicator" {
			entry += " | Valid From: " + obj.ValidFrom
		}
		lines = append(lines, entry)
	}
	return strings.Join(lines, "\n")
}
