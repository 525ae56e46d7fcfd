package script

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/zurustar/tinyscript/pkg/fileutil"
)

// Extension はスクリプトファイルの拡張子
const Extension = ".tiny"

// 検出したエンコーディング名
const (
	EncodingUTF8     = "utf-8"
	EncodingUTF8BOM  = "utf-8-bom"
	EncodingUTF16LE  = "utf-16le"
	EncodingUTF16BE  = "utf-16be"
	EncodingShiftJIS = "shift_jis"
)

// Script はスクリプトファイルを表す
type Script struct {
	FileName string // ファイル名
	Content  string // UTF-8に変換された内容
	Size     int64  // ファイルサイズ
	Encoding string // 検出したエンコーディング
}

// Loader はスクリプトファイルの読み込みを行う
type Loader struct {
	basePath string
}

// NewLoader Loaderを作成
func NewLoader(basePath string) *Loader {
	return &Loader{
		basePath: basePath,
	}
}

// BasePath 相対パスの基準ディレクトリを返す
func (l *Loader) BasePath() string {
	return l.basePath
}

// Load 単一のスクリプトファイルを読み込む
// 相対パスはbasePathからの相対として扱う
func (l *Loader) Load(path string) (*Script, error) {
	if !filepath.IsAbs(path) && l.basePath != "" {
		path = filepath.Join(l.basePath, path)
	}

	// 大文字小文字が異なるファイル名も探す
	path, err := fileutil.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	// ファイル情報を取得
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	// ファイルを読み込む
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	content, enc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to convert encoding of %s: %w", path, err)
	}

	return &Script{
		FileName: filepath.Base(path),
		Content:  content,
		Size:     info.Size(),
		Encoding: enc,
	}, nil
}

// LoadAll basePath直下のすべてのスクリプトファイルをファイル名順に読み込む
func (l *Loader) LoadAll() ([]Script, error) {
	scriptFiles, err := l.findScriptFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to find script files: %w", err)
	}

	if len(scriptFiles) == 0 {
		return nil, fmt.Errorf("no script files found in %s", l.basePath)
	}

	var scripts []Script
	for _, filePath := range scriptFiles {
		script, err := l.Load(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load script %s: %w", filePath, err)
		}
		scripts = append(scripts, *script)
	}

	return scripts, nil
}

// findScriptFiles スクリプトファイルを検出（拡張子はcase-insensitive）
func (l *Loader) findScriptFiles() ([]string, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return nil, err
	}

	var scriptFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), Extension) {
			scriptFiles = append(scriptFiles, filepath.Join(l.basePath, entry.Name()))
		}
	}

	sort.Strings(scriptFiles)
	return scriptFiles, nil
}

// Read リーダーから全体を読み込みUTF-8に変換する（標準入力用）
func Read(r io.Reader) (*Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	content, enc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to convert encoding: %w", err)
	}

	return &Script{
		FileName: "<stdin>",
		Content:  content,
		Size:     int64(len(data)),
		Encoding: enc,
	}, nil
}

// Decode バイト列をUTF-8文字列に変換し、検出したエンコーディング名を返す
//
// 判定順:
//  1. BOM（UTF-8 / UTF-16LE / UTF-16BE）
//  2. 妥当なUTF-8ならそのまま
//  3. それ以外はShift-JISとしてデコード
func Decode(data []byte) (string, string, error) {
	if enc, name, ok := detectBOM(data); ok {
		decoded, err := decodeWith(data, enc)
		return decoded, name, err
	}

	if utf8.Valid(data) {
		return string(data), EncodingUTF8, nil
	}

	decoded, err := decodeWith(data, japanese.ShiftJIS)
	return decoded, EncodingShiftJIS, err
}

// detectBOM 先頭のBOMからエンコーディングを判定
func detectBOM(data []byte) (encoding.Encoding, string, bool) {
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return unicode.UTF8BOM, EncodingUTF8BOM, true
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), EncodingUTF16LE, true
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), EncodingUTF16BE, true
	}
	return nil, "", false
}

// decodeWith 指定したエンコーディングでUTF-8に変換
func decodeWith(data []byte, enc encoding.Encoding) (string, error) {
	reader := transform.NewReader(bytes.NewReader(data), enc.NewDecoder())

	utf8Data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to decode: %w", err)
	}

	return string(utf8Data), nil
}
