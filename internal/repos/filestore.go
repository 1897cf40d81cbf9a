package repos

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"stockdesk/internal/domain"
)

// FileStore is the flat-file persistence sink: a JSON snapshot of the
// ledger, a CSV export of the same snapshot, and one JSON file per
// invoice. It holds no state of its own; the ledger stays authoritative.
type FileStore struct {
	JSONPath   string
	CSVPath    string
	InvoiceDir string
}

func NewFileStore(jsonPath, csvPath, invoiceDir string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(jsonPath), 0o755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(invoiceDir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{JSONPath: jsonPath, CSVPath: csvPath, InvoiceDir: invoiceDir}, nil
}

// SaveSnapshot writes the ledger snapshot to both sinks. The JSON file is
// the one read back at boot; the CSV is export-only.
func (s *FileStore) SaveSnapshot(items []domain.Item) error {
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.JSONPath, b, 0o644); err != nil {
		return err
	}
	return s.writeCSV(items)
}

func (s *FileStore) writeCSV(items []domain.Item) error {
	f, err := os.Create(s.CSVPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Name", "Color", "Size", "Brand", "Category", "Quantity", "Price"}); err != nil {
		return err
	}
	for _, it := range items {
		rec := []string{it.Name, it.Color, it.Size, it.Brand, it.Category,
			strconv.Itoa(it.Quantity), it.Price.String()}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// LoadSnapshot reads the JSON snapshot back. A missing file is an empty
// ledger, not an error.
func (s *FileStore) LoadSnapshot() ([]domain.Item, error) {
	b, err := os.ReadFile(s.JSONPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var items []domain.Item
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// SaveInvoice writes one invoice file and returns its path.
func (s *FileStore) SaveInvoice(inv domain.Invoice) (string, error) {
	b, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.InvoiceDir, "invoice_"+inv.ID+".json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
