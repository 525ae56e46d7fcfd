package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/zurustar/tinyscript/pkg/cli"
	"github.com/zurustar/tinyscript/pkg/compiler"
	"github.com/zurustar/tinyscript/pkg/host"
	"github.com/zurustar/tinyscript/pkg/logger"
	"github.com/zurustar/tinyscript/pkg/opcode"
	"github.com/zurustar/tinyscript/pkg/repl"
	"github.com/zurustar/tinyscript/pkg/script"
	"github.com/zurustar/tinyscript/pkg/vm"
)

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config   *cli.Config
	log      *slog.Logger
	bindings *host.Bindings
	programs []*opcode.Program // コンパイル済みプログラム

	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
	isTerminal func() bool // 標準入力が端末かどうか
}

// New 標準入出力を使うApplicationを作成
func New() *Application {
	return &Application{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
}

// NewWithIO 入出力を差し替えたApplicationを作成（テスト用）
// 標準入力は端末ではないものとして扱う
func NewWithIO(stdin io.Reader, stdout, stderr io.Writer) *Application {
	return &Application{
		stdin:      stdin,
		stdout:     stdout,
		stderr:     stderr,
		isTerminal: func() bool { return false },
	}
}

// Bindings 実行後の変数を返す
func (app *Application) Bindings() *host.Bindings {
	return app.bindings
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp {
		cli.PrintHelp(app.stdout)
		return nil
	}

	// 2. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.log.Debug("Application started")

	// 3. 変数の登録
	if err := app.bindVariables(); err != nil {
		return fmt.Errorf("failed to bind variables: %w", err)
	}

	// 4. 対話モード（スクリプト指定なし）
	if app.config.ScriptPath == "" && (app.config.Interactive || app.isTerminal()) {
		app.startShell()
		return nil
	}

	// 5. スクリプトの読み込み
	scripts, err := app.loadScripts()
	if err != nil {
		return fmt.Errorf("failed to load scripts: %w", err)
	}

	app.log.Info("Scripts loaded", "count", len(scripts))
	for _, s := range scripts {
		app.log.Debug("Script file", "name", s.FileName, "size", s.Size, "encoding", s.Encoding)
	}

	// 6. スクリプトのコンパイル
	if err := app.compileScripts(scripts); err != nil {
		return fmt.Errorf("failed to compile scripts: %w", err)
	}

	// 7. 評価（-n 0 の場合はコンパイルのみ）
	if app.config.Repeat == 0 {
		app.log.Info("Compile only, skipping evaluation")
		for _, p := range app.programs {
			fmt.Fprint(app.stdout, p.String())
		}
		return nil
	}

	app.evaluate()
	if err := app.bindings.Fprint(app.stdout); err != nil {
		return fmt.Errorf("failed to print variables: %w", err)
	}

	// 8. 実行後に対話モードへ
	if app.config.Interactive {
		app.startShell()
	}

	app.log.Debug("Application terminated normally")
	return nil
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.InitLoggerTo(app.stderr, app.config.LogLevel); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// bindVariables -f / -b で指定された変数を登録
func (app *Application) bindVariables() error {
	app.bindings = host.NewBindings()
	for _, f := range app.config.Floats {
		if err := app.bindings.SetFloat(f.Name, f.Value); err != nil {
			return err
		}
	}
	for _, b := range app.config.Bools {
		if err := app.bindings.SetBool(b.Name, b.Value); err != nil {
			return err
		}
	}
	return nil
}

// loadScripts スクリプトを読み込む
// パスがディレクトリなら中の全スクリプト、ファイルならそのファイル、
// 未指定なら標準入力から読む
func (app *Application) loadScripts() ([]script.Script, error) {
	path := app.config.ScriptPath
	if path == "" {
		s, err := script.Read(app.stdin)
		if err != nil {
			return nil, err
		}
		return []script.Script{*s}, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s: %w", path, err)
	}

	if info.IsDir() {
		return script.NewLoader(path).LoadAll()
	}

	s, err := script.NewLoader("").Load(path)
	if err != nil {
		return nil, err
	}
	return []script.Script{*s}, nil
}

// compileScripts 全スクリプトを同じ変数に対してコンパイル
func (app *Application) compileScripts(scripts []script.Script) error {
	vars, bools, err := app.bindings.Registries()
	if err != nil {
		return err
	}

	programs, err := compiler.CompileScripts(scripts, vars, bools)
	if err != nil {
		app.log.Error("Compilation failed", "error", err)
		return err
	}
	app.programs = programs

	for i, p := range programs {
		app.log.Debug("Program compiled", "script", scripts[i].FileName,
			"statements", len(p.Statements), "depth", p.Depth)
	}
	return nil
}

// evaluate 全プログラムを順に評価する（Repeat回繰り返す）
func (app *Application) evaluate() {
	machines := make([]*vm.VM, len(app.programs))
	for i, p := range app.programs {
		machines[i] = vm.New(p, vm.WithLogger(app.log))
	}

	for pass := 0; pass < app.config.Repeat; pass++ {
		for _, m := range machines {
			m.Evaluate()
		}
	}

	app.log.Info("Evaluation finished", "programs", len(machines), "passes", app.config.Repeat)
}

// startShell 現在の変数で対話シェルを開始
func (app *Application) startShell() {
	app.log.Debug("Starting interactive shell")
	repl.Start(repl.NewSession(app.bindings, app.stdout))
}
