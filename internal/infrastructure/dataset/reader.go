// Package dataset 讀取參考資料集並以原子方式提供最新的快照。
package dataset

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	excelize "github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const utf8BOM = "\ufeff"

// ReadFile 依副檔名讀取 .csv、.csv.gz 或 .xlsx，回傳表頭與逐列資料
func ReadFile(path string) ([]string, []map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ReadAny(f, path)
}

// ReadAny 依檔名選擇解析器
func ReadAny(r io.Reader, filename string) ([]string, []map[string]string, error) {
	name := strings.ToLower(filepath.Base(filename))
	switch {
	case strings.HasSuffix(name, ".csv.gz"), strings.HasSuffix(name, ".gz"):
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("open gzip %s: %w", filename, err)
		}
		defer zr.Close()
		return readCSV(zr)
	case strings.HasSuffix(name, ".csv"):
		return readCSV(r)
	case strings.HasSuffix(name, ".xlsx"):
		return readXLSX(r)
	default:
		return nil, nil, fmt.Errorf("unsupported file: %s", filename)
	}
}

// decoderFor 依偵測到的字元集選擇解碼器；非 UTF-8 的西歐編碼一律以 Windows-1252 解碼
func decoderFor(charset string) *encoding.Decoder {
	switch strings.ToLower(charset) {
	case "utf-8", "utf8":
		return nil
	case "windows-1251", "cp1251":
		return charmap.Windows1251.NewDecoder()
	default:
		return charmap.Windows1252.NewDecoder()
	}
}

// readCSV 自動偵測編碼並轉成 UTF-8
func readCSV(r io.Reader) ([]string, []map[string]string, error) {
	br := bufio.NewReader(r)

	peek, _ := br.Peek(4096)
	var dec io.Reader = br
	if len(peek) > 0 && !looksUTF8(peek) {
		if det, err := chardet.NewTextDetector().DetectBest(peek); err == nil && det != nil {
			if d := decoderFor(det.Charset); d != nil {
				dec = transform.NewReader(br, d)
			}
		}
	}

	cr := csv.NewReader(dec)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	headers := pickHeader(header)

	var out []map[string]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if m := rowToMap(rec, headers); m != nil {
			out = append(out, m)
		}
	}
	return headers, out, nil
}

func readXLSX(r io.Reader) ([]string, []map[string]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}

	headers := pickHeader(rows[0])
	var out []map[string]string
	for _, rec := range rows[1:] {
		if m := rowToMap(rec, headers); m != nil {
			out = append(out, m)
		}
	}
	return headers, out, nil
}

// looksUTF8 容許結尾被截斷的多位元組字元
func looksUTF8(b []byte) bool {
	if bytes.HasPrefix(b, []byte(utf8BOM)) {
		return true
	}
	for cut := 0; cut < utf8.UTFMax && cut < len(b); cut++ {
		if utf8.Valid(b[:len(b)-cut]) {
			return true
		}
	}
	return false
}

// pickHeader 清理表頭，空白欄位以 Column N 代替
func pickHeader(h []string) []string {
	out := make([]string, len(h))
	for i, v := range h {
		v = strings.TrimSpace(strings.TrimPrefix(v, utf8BOM))
		if v == "" {
			v = fmt.Sprintf("Column %d", i+1)
		}
		out[i] = v
	}
	return out
}

// rowToMap 依表頭轉成 map，整列空白時回傳 nil
func rowToMap(rec []string, headers []string) map[string]string {
	m := make(map[string]string, len(headers))
	empty := true
	for c, h := range headers {
		var v string
		if c < len(rec) {
			v = rec[c]
		}
		if strings.TrimSpace(v) != "" {
			empty = false
		}
		m[h] = v
	}
	if empty {
		return nil
	}
	return m
}
