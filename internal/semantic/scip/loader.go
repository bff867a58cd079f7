package scip

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"implint/internal/errors"
)

// LoadIndex reads and decodes a SCIP index file. Indexes compressed with
// gzip (.scip.gz) or zstd (.scip.zst) are decompressed transparently; the
// format is detected from magic bytes, not the extension.
func LoadIndex(indexPath string) (*Index, error) {
	info, err := os.Stat(indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewLintError(
				errors.IndexMissing,
				fmt.Sprintf("SCIP index not found at %s", indexPath),
				err,
			)
		}
		return nil, fmt.Errorf("failed to stat SCIP index: %w", err)
	}

	data, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SCIP index: %w", err)
	}

	data, err = decompress(data)
	if err != nil {
		return nil, errors.NewLintError(
			errors.IndexCorrupt,
			fmt.Sprintf("failed to decompress SCIP index %s", indexPath),
			err,
		)
	}

	var raw scippb.Index
	if err := proto.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewLintError(
			errors.IndexCorrupt,
			fmt.Sprintf("failed to decode SCIP index %s", indexPath),
			err,
		)
	}

	return convertIndex(indexPath, info.ModTime(), &raw), nil
}

// decompress unwraps gzip or zstd framing, passing plain data through.
func decompress(data []byte) ([]byte, error) {
	switch {
	case len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = zr.Close() }()
		return io.ReadAll(zr)

	case len(data) >= 4 && data[0] == 0x28 && data[1] == 0xb5 && data[2] == 0x2f && data[3] == 0xfd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(data, nil)

	default:
		return data, nil
	}
}

// convertIndex turns the decoded protobuf into the in-memory query form.
// Occurrences are sorted by start position so traversal follows document
// order.
func convertIndex(path string, modTime time.Time, raw *scippb.Index) *Index {
	ix := &Index{
		path:      path,
		modTime:   modTime,
		documents: make(map[string]*document, len(raw.Documents)),
	}
	if raw.Metadata != nil && raw.Metadata.ToolInfo != nil {
		ix.toolName = raw.Metadata.ToolInfo.Name
	}

	for _, rawDoc := range raw.Documents {
		if rawDoc == nil || rawDoc.RelativePath == "" {
			continue
		}
		doc := &document{
			path:  rawDoc.RelativePath,
			names: make(map[string]string, len(rawDoc.Symbols)),
		}
		for _, sym := range rawDoc.Symbols {
			if sym != nil && sym.DisplayName != "" {
				doc.names[sym.Symbol] = sym.DisplayName
			}
		}
		doc.occurrences = make([]occurrence, 0, len(rawDoc.Occurrences))
		for _, occ := range rawDoc.Occurrences {
			if occ == nil || len(occ.Range) < 3 || occ.Symbol == "" {
				continue
			}
			doc.occurrences = append(doc.occurrences, occurrence{
				rng:    occ.Range,
				symbol: occ.Symbol,
				roles:  occ.SymbolRoles,
			})
		}
		sort.Slice(doc.occurrences, func(i, j int) bool {
			li, ci := startOf(doc.occurrences[i].rng)
			lj, cj := startOf(doc.occurrences[j].rng)
			if li != lj {
				return li < lj
			}
			return ci < cj
		})
		ix.documents[rawDoc.RelativePath] = doc
	}

	return ix
}

// moduleForSymbol extracts the defining module from a SCIP symbol string.
// Symbols follow the format
// <scheme> <package-manager> <package-name> <version> <descriptor>;
// the package name is the module. Local symbols have no module.
func moduleForSymbol(symbol string) string {
	if isLocalSymbol(symbol) {
		return ""
	}
	parts := strings.SplitN(symbol, " ", 5)
	if len(parts) < 4 {
		return ""
	}
	name := parts[2]
	if name == "." {
		return ""
	}
	return name
}
