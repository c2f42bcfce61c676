package corpus

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codeready-toolchain/alimtalk/pkg/models"
)

// LoadPolicyDirectory walks dir for *.md files and registers one PolicyChunk
// per file. Production deployments point this at a document pipeline that
// performs paragraph-level splitting.
func LoadPolicyDirectory(store *Store, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("corpus: read policy dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("corpus: read %s: %w", path, err)
		}

		docID := fingerprint(path)
		chunk := &models.PolicyChunk{
			Content:    string(content),
			Source:     entry.Name(),
			PolicyType: classifyFilename(entry.Name()),
			ChunkIndex: 0,
		}
		store.AddChunk(docID, chunk)
	}
	return nil
}

// LoadTemplateData parses a JSON array of approved templates produced by
// the external template repository and registers each one.
func LoadTemplateData(store *Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("corpus: read template data: %w", err)
	}

	var raw []models.ApprovedTemplate
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("corpus: parse template data: %w", err)
	}

	for i := range raw {
		tmpl := raw[i]
		docID := tmpl.ID
		if docID == "" {
			docID = fingerprint(tmpl.Text)
		}
		store.AddTemplate(docID, &tmpl)
	}
	return nil
}

func fingerprint(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}

// classifyFilename maps a policy document's filename to a PolicyType using
// simple keyword matching; a real ingestion pipeline would carry this
// metadata explicitly rather than inferring it from a path.
func classifyFilename(name string) models.PolicyType {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "review"):
		return models.PolicyReviewGuidelines
	case strings.Contains(lower, "content"):
		return models.PolicyContentGuidelines
	case strings.Contains(lower, "allowed"):
		return models.PolicyAllowedTemplates
	case strings.Contains(lower, "prohibited"):
		return models.PolicyProhibitedTemplates
	case strings.Contains(lower, "operation"):
		return models.PolicyOperationalProcedures
	case strings.Contains(lower, "image"):
		return models.PolicyImageGuidelines
	case strings.Contains(lower, "infotalk"):
		return models.PolicyInfotalkGuidelines
	case strings.Contains(lower, "public"):
		return models.PolicyPublicTemplateGuidelines
	default:
		return models.PolicyGeneral
	}
}
