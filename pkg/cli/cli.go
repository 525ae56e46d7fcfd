package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/zurustar/tinyscript/pkg/logger"
	"github.com/zurustar/tinyscript/pkg/registry"
)

// Binding は -f / -b で指定された変数の初期値
type Binding[T registry.Value] struct {
	Name  string
	Value T
}

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	ScriptPath  string             // スクリプトファイルまたはディレクトリのパス（空なら標準入力）
	Floats      []Binding[float64] // 数値変数の初期値
	Bools       []Binding[bool]    // 真偽値変数の初期値
	Repeat      int                // 評価回数（0はコンパイルのみ）
	LogLevel    string             // ログレベル（debug, info, warn, error）
	Interactive bool               // 対話モード
	ShowHelp    bool               // ヘルプ表示フラグ
}

// bindingFlag は name=value 形式の繰り返し指定可能なフラグ
type bindingFlag[T registry.Value] struct {
	list  *[]Binding[T]
	parse func(string) (T, error)
}

func (f *bindingFlag[T]) String() string {
	if f.list == nil {
		return ""
	}
	parts := make([]string, 0, len(*f.list))
	for _, b := range *f.list {
		parts = append(parts, fmt.Sprintf("%s=%v", b.Name, b.Value))
	}
	return strings.Join(parts, ",")
}

func (f *bindingFlag[T]) Set(s string) error {
	name, raw, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("binding %q must have the form name=value", s)
	}
	name = strings.TrimSpace(name)
	if !registry.IsIdentifier(name) {
		return fmt.Errorf("invalid variable name %q", name)
	}
	for _, b := range *f.list {
		if b.Name == name {
			return fmt.Errorf("variable %q bound more than once", name)
		}
	}

	v, err := f.parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", name, err)
	}
	*f.list = append(*f.list, Binding[T]{Name: name, Value: v})
	return nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// valueFlags は値を取るフラグ（並べ替え時に次の引数を値として扱う）
var valueFlags = map[string]bool{
	"-f": true, "--float": true,
	"-b": true, "--bool": true,
	"-n": true, "--repeat": true,
	"-l": true, "--log-level": true,
}

// ParseArgs コマンドライン引数を解析してConfigを返す
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("tinyscript", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	config := &Config{}

	floats := &bindingFlag[float64]{list: &config.Floats, parse: parseFloat}
	bools := &bindingFlag[bool]{list: &config.Bools, parse: strconv.ParseBool}

	var repeat int
	fs.Var(floats, "float", "数値変数の初期値（name=value、繰り返し指定可）")
	fs.Var(floats, "f", "数値変数の初期値（短縮形）")
	fs.Var(bools, "bool", "真偽値変数の初期値（name=value、繰り返し指定可）")
	fs.Var(bools, "b", "真偽値変数の初期値（短縮形）")
	fs.IntVar(&repeat, "repeat", 1, "評価回数")
	fs.IntVar(&repeat, "n", 1, "評価回数（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "", "ログレベル（短縮形）")
	fs.BoolVar(&config.Interactive, "interactive", false, "対話モード")
	fs.BoolVar(&config.Interactive, "i", false, "対話モード（短縮形）")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 環境変数からログレベルを取得（コマンドラインフラグが優先）
	if config.LogLevel == "" {
		config.LogLevel = "info"
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}

	repeatSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "repeat" || f.Name == "n" {
			repeatSet = true
		}
	})

	// 環境変数から評価回数を取得（コマンドラインフラグが優先）
	if !repeatSet {
		if repeatEnv := os.Getenv("TINYSCRIPT_REPEAT"); repeatEnv != "" {
			n, err := strconv.Atoi(repeatEnv)
			if err != nil {
				return nil, fmt.Errorf("invalid TINYSCRIPT_REPEAT: %q", repeatEnv)
			}
			repeat = n
		}
	}

	// 評価回数の検証
	if repeat < 0 {
		return nil, fmt.Errorf("repeat must be non-negative, got %d", repeat)
	}
	config.Repeat = repeat

	// ログレベルの検証
	if _, err := logger.ParseLevel(config.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid log level: %s (must be %s)",
			config.LogLevel, strings.Join(logger.Levels, ", "))
	}

	// 同じ名前を数値と真偽値の両方に指定することはできない
	for _, b := range config.Bools {
		for _, f := range config.Floats {
			if b.Name == f.Name {
				return nil, fmt.Errorf("variable %q bound as both float and bool", b.Name)
			}
		}
	}

	// 位置引数（スクリプトのパス）
	switch fs.NArg() {
	case 0:
	case 1:
		config.ScriptPath = fs.Arg(0)
	default:
		return nil, fmt.Errorf("expected at most one script path, got %d", fs.NArg())
	}

	return config, nil
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// "--" 以降はすべて位置引数
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 1 && arg[0] == '-' {
			flags = append(flags, arg)

			// 値を取るフラグで "=" を含まない場合は次の引数も追加
			// （-f x=1 のような場合）
			if valueFlags[arg] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp(w io.Writer) {
	fmt.Fprintf(w, `tinyscript - statement compiler and runtime

Usage:
  tinyscript [options] [script-path]

Arguments:
  script-path   スクリプトファイル（.tiny）またはディレクトリのパス（省略可）
                ディレクトリを指定した場合、中の .tiny ファイルを名前順にすべて実行
                省略した場合、端末なら対話モード、それ以外は標準入力から読み込む

Options:
  -f, --float <name=value>    数値変数を定義して初期値を設定（繰り返し指定可）
  -b, --bool <name=value>     真偽値変数を定義して初期値を設定（繰り返し指定可）
  -n, --repeat <count>        評価回数（デフォルト: 1、0はコンパイルのみ）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  -i, --interactive           対話モード（スクリプト実行後に続けて入力できる）
  -h, --help                  このヘルプを表示

Environment Variables:
  LOG_LEVEL=<level>           ログレベル
  TINYSCRIPT_REPEAT=<count>   評価回数

Examples:
  tinyscript -f x=0 script.tiny                 x を 0 で定義して実行
  tinyscript -f x=2 -b b=false if.tiny          数値と真偽値を定義して実行
  echo "x = 2 + 3;" | tinyscript -f x=0         標準入力から実行
  tinyscript -n 0 scripts/                      ディレクトリ内をコンパイルのみ
  tinyscript -i -f x=0                          対話モード
`)
}
