// klingnet-keyring manages recovery phrases and the Ethereum and Solana
// wallets derived from them.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/Klingon-tech/klingnet-keyring/config"
	"github.com/Klingon-tech/klingnet-keyring/internal/keyring"
	"github.com/Klingon-tech/klingnet-keyring/internal/log"
	"github.com/Klingon-tech/klingnet-keyring/internal/storage"
	"github.com/Klingon-tech/klingnet-keyring/internal/wallet"
)

const version = "0.1.0"

func main() {
	cfg, flags, err := config.Load(os.Args[1:])
	if err != nil {
		fatal("%v", err)
	}
	if flags.Help {
		usage()
		return
	}
	if flags.Version {
		fmt.Println("klingnet-keyring version", version)
		return
	}
	if len(flags.Args) == 0 {
		usage()
		os.Exit(1)
	}
	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fatal("init logging: %v", err)
	}

	cmd := flags.Args[0]
	cmdArgs := flags.Args[1:]

	switch cmd {
	case "phrase":
		cmdPhrase(cmdArgs)
	case "account":
		cmdAccount(cfg, cmdArgs)
	case "wallet":
		cmdWallet(cfg, cmdArgs)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: klingnet-keyring [global flags] <command> [flags]

Global flags:
  --datadir <path>    Data directory (default: ~/.klingnet-keyring)
  --config, -c <path> Config file (default: <datadir>/keyring.conf)
  --backend <name>    badger (default), file, or memory
  --encrypt           Encrypt the keyring file with a password (file backend)
  --log-level <lvl>   debug, info, warn (default), error
  --log-json          Output logs as JSON
  --log-file <path>   Also write JSON logs to a file

Commands:
  phrase generate                         Print a new 12-word recovery phrase
  phrase validate <words...>              Check a recovery phrase

  account create [--name N]               Create an account with a new phrase
  account import [--mnemonic M] [--name N]
                                          Import an existing phrase
  account list                            List accounts (* marks current)
  account switch <id>                     Make an account current
  account delete <id>                     Delete an account and its keys
  account phrase [--account ID]           Show an account's recovery phrase

  wallet add --chain <ethereum|solana> [--account ID] [--count N]
                                          Derive the next wallet(s)
  wallet list [--account ID]              List derived wallets
  wallet export-key --index I [--account ID]
                                          Print a wallet's private key

Account IDs may be shortened to any unique prefix. Commands without
--account use the current account.
`)
}

// ── Store helper ────────────────────────────────────────────────────────

// openStore opens the registry on the configured backend. The returned
// close function flushes and wipes the store.
func openStore(cfg *config.Config) (*keyring.Store, func()) {
	var (
		port    keyring.Persistence
		cleanup []func()
	)

	switch cfg.Backend {
	case config.BackendBadger:
		db, err := storage.NewBadger(cfg.DBDir())
		if err != nil {
			fatal("open database: %v", err)
		}
		port = keyring.NewDBPort(db)
		cleanup = append(cleanup, func() { db.Close() })

	case config.BackendFile:
		if !cfg.Encrypt {
			port = keyring.NewFilePort(cfg.KeyringFile())
			break
		}
		_, statErr := os.Stat(cfg.KeyringFile())
		password := promptPassword(errors.Is(statErr, os.ErrNotExist))
		fp := keyring.NewEncryptedFilePort(cfg.KeyringFile(), password, cfg.EncryptionParams())
		clear(password)
		port = fp
		cleanup = append(cleanup, fp.Close)

	case config.BackendMemory:
		port = keyring.NewDBPort(storage.NewMemory())
	}

	store, err := keyring.Open(port)
	if err != nil {
		for _, fn := range cleanup {
			fn()
		}
		fail(err)
	}
	log.CLI.Debug().Str("backend", string(cfg.Backend)).Msg("Keyring opened")

	return store, func() {
		if err := store.Close(); err != nil {
			warn(err)
		}
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}
}

// resolveAccount finds an account by id or unique id prefix. An empty ref
// selects the current account.
func resolveAccount(store *keyring.Store, ref string) keyring.Account {
	if ref == "" {
		acc, ok := store.Current()
		if !ok {
			fatal("no accounts yet; run 'klingnet-keyring account create' first")
		}
		return acc
	}

	var matches []keyring.Account
	for _, acc := range store.ListAccounts() {
		if acc.ID == ref {
			return acc
		}
		if strings.HasPrefix(acc.ID, ref) {
			matches = append(matches, acc)
		}
	}
	switch len(matches) {
	case 0:
		fail(fmt.Errorf("%w: %s", keyring.ErrAccountNotFound, ref))
	case 1:
		return matches[0]
	default:
		fatal("account prefix %q is ambiguous (%d matches)", ref, len(matches))
	}
	return keyring.Account{}
}

// ── Phrase commands ─────────────────────────────────────────────────────

func cmdPhrase(args []string) {
	if len(args) < 1 {
		fatal("Usage: klingnet-keyring phrase <generate|validate> [words...]")
	}

	switch args[0] {
	case "generate":
		m, err := wallet.GenerateMnemonic()
		if err != nil {
			fatal("generate phrase: %v", err)
		}
		fmt.Println(m.Phrase())
	case "validate":
		phrase := strings.Join(args[1:], " ")
		if _, err := wallet.ParseMnemonic(phrase); err != nil {
			fail(err)
		}
		fmt.Println("valid")
	default:
		fatal("Unknown phrase command: %s\nUsage: klingnet-keyring phrase <generate|validate>", args[0])
	}
}

// ── Account commands ────────────────────────────────────────────────────

func cmdAccount(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fatal("Usage: klingnet-keyring account <create|import|list|switch|delete|phrase> [flags]")
	}

	store, closeStore := openStore(cfg)
	defer closeStore()

	switch args[0] {
	case "create":
		cmdAccountCreate(store, args[1:])
	case "import":
		cmdAccountImport(store, args[1:])
	case "list":
		cmdAccountList(store)
	case "switch":
		cmdAccountSwitch(store, args[1:])
	case "delete":
		cmdAccountDelete(store, args[1:])
	case "phrase":
		cmdAccountPhrase(store, args[1:])
	default:
		fatal("Unknown account command: %s\nUsage: klingnet-keyring account <create|import|list|switch|delete|phrase> [flags]", args[0])
	}
}

func cmdAccountCreate(store *keyring.Store, args []string) {
	fs := flag.NewFlagSet("account create", flag.ExitOnError)
	name := fs.String("name", "", "Account name (default: Account N)")
	fs.Parse(args)

	acc, err := store.GenerateAccount(*name)
	warnOrFail(err)
	m, err := store.RevealMnemonic(acc.ID)
	if err != nil {
		fail(err)
	}

	fmt.Printf("Account created: %s\n", acc.Name)
	fmt.Printf("  ID: %s\n\n", acc.ID)
	fmt.Println("Recovery phrase (write this down!):")
	fmt.Printf("  %s\n", m.Phrase())
}

func cmdAccountImport(store *keyring.Store, args []string) {
	fs := flag.NewFlagSet("account import", flag.ExitOnError)
	name := fs.String("name", "", "Account name (default: Imported Account N)")
	mnemonic := fs.String("mnemonic", "", "BIP-39 recovery phrase (12 words); prompted when omitted")
	fs.Parse(args)

	phrase := *mnemonic
	if phrase == "" {
		b, err := readPassword("Enter recovery phrase: ")
		if err != nil {
			fatal("read phrase: %v", err)
		}
		phrase = string(b)
		clear(b)
	}

	acc, err := store.ImportAccount(phrase, *name)
	warnOrFail(err)

	fmt.Printf("Account imported: %s\n", acc.Name)
	fmt.Printf("  ID: %s\n", acc.ID)
}

func cmdAccountList(store *keyring.Store) {
	accounts := store.ListAccounts()
	if len(accounts) == 0 {
		fmt.Println("No accounts.")
		return
	}
	cur, _ := store.Current()

	fmt.Printf("  %-36s  %-24s  %7s  %s\n", "ID", "NAME", "WALLETS", "CREATED")
	for _, acc := range accounts {
		mark := " "
		if acc.ID == cur.ID {
			mark = "*"
		}
		fmt.Printf("%s %-36s  %-24s  %7d  %s\n",
			mark, acc.ID, acc.Name, len(acc.Wallets), acc.CreatedAt.Format("2006-01-02"))
	}
}

func cmdAccountSwitch(store *keyring.Store, args []string) {
	if len(args) != 1 {
		fatal("Usage: klingnet-keyring account switch <id>")
	}
	target := resolveAccount(store, args[0])
	acc, err := store.SwitchCurrent(target.ID)
	warnOrFail(err)
	fmt.Printf("Current account: %s (%s)\n", acc.Name, acc.ID)
}

func cmdAccountDelete(store *keyring.Store, args []string) {
	if len(args) != 1 {
		fatal("Usage: klingnet-keyring account delete <id>")
	}
	target := resolveAccount(store, args[0])
	warnOrFail(store.DeleteAccount(target.ID))

	fmt.Printf("Deleted account: %s (%s)\n", target.Name, target.ID)
	if cur, ok := store.Current(); ok {
		fmt.Printf("Current account: %s (%s)\n", cur.Name, cur.ID)
	}
}

func cmdAccountPhrase(store *keyring.Store, args []string) {
	fs := flag.NewFlagSet("account phrase", flag.ExitOnError)
	ref := fs.String("account", "", "Account ID (default: current)")
	fs.Parse(args)

	acc := resolveAccount(store, *ref)
	m, err := store.RevealMnemonic(acc.ID)
	if err != nil {
		fail(err)
	}
	fmt.Println(m.Phrase())
}

// ── Wallet commands ─────────────────────────────────────────────────────

func cmdWallet(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fatal("Usage: klingnet-keyring wallet <add|list|export-key> [flags]")
	}

	store, closeStore := openStore(cfg)
	defer closeStore()

	switch args[0] {
	case "add":
		cmdWalletAdd(store, args[1:])
	case "list":
		cmdWalletList(store, args[1:])
	case "export-key":
		cmdWalletExportKey(store, args[1:])
	default:
		fatal("Unknown wallet command: %s\nUsage: klingnet-keyring wallet <add|list|export-key> [flags]", args[0])
	}
}

func cmdWalletAdd(store *keyring.Store, args []string) {
	fs := flag.NewFlagSet("wallet add", flag.ExitOnError)
	chainName := fs.String("chain", "", "Chain: ethereum (eth) or solana (sol)")
	ref := fs.String("account", "", "Account ID (default: current)")
	count := fs.Int("count", 1, "Number of wallets to derive")
	fs.Parse(args)

	if *chainName == "" {
		fatal("Usage: klingnet-keyring wallet add --chain <ethereum|solana> [--account ID] [--count N]")
	}
	chain, err := wallet.ParseChainType(*chainName)
	if err != nil {
		fail(err)
	}
	if *count < 1 {
		fatal("--count must be at least 1")
	}

	acc := resolveAccount(store, *ref)
	chains := make([]wallet.ChainType, *count)
	for i := range chains {
		chains[i] = chain
	}
	infos, err := store.AddWallets(acc.ID, chains...)
	warnOrFail(err)

	for _, info := range infos {
		printWallet(info)
	}
}

func cmdWalletList(store *keyring.Store, args []string) {
	fs := flag.NewFlagSet("wallet list", flag.ExitOnError)
	ref := fs.String("account", "", "Account ID (default: current)")
	fs.Parse(args)

	acc := resolveAccount(store, *ref)
	if len(acc.Wallets) == 0 {
		fmt.Printf("No wallets in %s.\n", acc.Name)
		return
	}
	fmt.Printf("Wallets in %s:\n", acc.Name)
	for _, info := range acc.Wallets {
		printWallet(info)
	}
}

func cmdWalletExportKey(store *keyring.Store, args []string) {
	fs := flag.NewFlagSet("wallet export-key", flag.ExitOnError)
	ref := fs.String("account", "", "Account ID (default: current)")
	index := fs.Int("index", -1, "Wallet index")
	fs.Parse(args)

	if *index < 0 {
		fatal("Usage: klingnet-keyring wallet export-key --index <i> [--account ID]")
	}

	acc := resolveAccount(store, *ref)
	key, err := store.ExportPrivateKey(acc.ID, *index)
	if err != nil {
		fail(err)
	}
	fmt.Println(key)
}

func printWallet(info wallet.Info) {
	fmt.Printf("  [%d] %-8s  %-20s  %s\n", info.Index, info.Chain, info.Path, info.Address)
}

// ── Password helper ─────────────────────────────────────────────────────

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

// promptPassword asks for the keyring password, twice when creating.
func promptPassword(confirm bool) []byte {
	password, err := readPassword("Enter keyring password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if len(password) == 0 {
		fatal("password must not be empty")
	}
	if !confirm {
		return password
	}
	again, err := readPassword("Confirm keyring password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	defer clear(again)
	if string(password) != string(again) {
		fatal("passwords do not match")
	}
	return password
}

// ── Error helper ────────────────────────────────────────────────────────

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// fail prints err with its category message and exits with its code.
func fail(err error) {
	msg, code := describe(err)
	fmt.Fprintf(os.Stderr, "Error: %s\n  %v\n", msg, err)
	os.Exit(code)
}

// warn reports a failed save. The command itself succeeded.
func warn(err error) {
	msg, _ := describe(err)
	fmt.Fprintf(os.Stderr, "Warning: %s\n  %v\n", msg, err)
}

// warnOrFail lets persistence errors through as warnings and fails on
// anything else.
func warnOrFail(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, keyring.ErrPersistence) {
		warn(err)
		return
	}
	fail(err)
}
