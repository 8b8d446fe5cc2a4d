package index

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/hyperjump/jobscout/internal/models"
)

// RenderHeader returns the labeled posting fields that prefix every chunk of the posting.
func RenderHeader(p *models.JobPosting) string {
	var b strings.Builder
	field := func(label, v string) {
		if v = strings.TrimSpace(v); v != "" {
			b.WriteString(label)
			b.WriteString(": ")
			b.WriteString(v)
			b.WriteByte('\n')
		}
	}
	field("Job ID", p.ID)
	field("Title", p.Title)
	field("Company", p.Company)
	field("Location", p.Location)
	field("Date", p.Date)
	field("Link", p.Link)
	return b.String()
}

// ChunkPosting renders p into one or more texts to embed. Every text carries the
// header so each chunk can be cited on its own.
func ChunkPosting(c *Chunker, p *models.JobPosting) []string {
	header := RenderHeader(p)
	parts := c.Chunk(p.Description)
	if len(parts) == 0 {
		return []string{strings.TrimRight(header, "\n")}
	}
	out := make([]string, len(parts))
	for i, part := range parts {
		out[i] = header + "Description: " + part
	}
	return out
}

// Fingerprint is a SHA-256 over the ordered postings, each field length-prefixed.
func Fingerprint(postings []*models.JobPosting) string {
	h := sha256.New()
	var n [8]byte
	write := func(s string) {
		binary.LittleEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}
	for _, p := range postings {
		for _, f := range p.Row() {
			write(f)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Dedup drops postings whose ID was already seen. The first occurrence wins.
func Dedup(postings []*models.JobPosting) []*models.JobPosting {
	seen := make(map[string]bool, len(postings))
	out := make([]*models.JobPosting, 0, len(postings))
	for _, p := range postings {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}
