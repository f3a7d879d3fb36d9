package parsers

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/username/finanzfolio/backend/src/models"
)

// ReadTable reads a delimited export file into a models.Table. Broker exports
// disagree on delimiters (Yuh uses ';', most others ','), so the delimiter is
// sniffed from the header line. A UTF-8 BOM, common in exports produced on
// Windows, is stripped.
func ReadTable(file io.Reader) (*models.Table, error) {
	buffered := bufio.NewReader(file)

	if bom, err := buffered.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		buffered.Discard(3)
	}

	headerLine, err := buffered.Peek(4096)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file header: %w", err)
	}
	if idx := strings.IndexByte(string(headerLine), '\n'); idx >= 0 {
		headerLine = headerLine[:idx]
	}

	reader := csv.NewReader(buffered)
	reader.FieldsPerRecord = -1 // Allow variable number of fields per record
	if strings.Count(string(headerLine), ";") > strings.Count(string(headerLine), ",") {
		reader.Comma = ';'
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("file contains no rows")
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	return &models.Table{Headers: headers, Rows: records[1:]}, nil
}
