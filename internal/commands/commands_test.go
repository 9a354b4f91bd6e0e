package commands_test

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketmoney-dev/pocketmoney/internal/activity"
	"github.com/pocketmoney-dev/pocketmoney/internal/commands"
	"github.com/pocketmoney-dev/pocketmoney/internal/config"
	"github.com/pocketmoney-dev/pocketmoney/internal/gitops"
	"github.com/pocketmoney-dev/pocketmoney/internal/id"
)

// run executes the CLI in-process against dir and returns stdout.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := commands.NewRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append(args, "--dir", dir))
	err := root.Execute()
	return stdout.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := run(t, dir, args...)
	require.NoError(t, err, "pocketmoney %s: %s", strings.Join(args, " "), out)
	return out
}

func initDir(t *testing.T, args ...string) string {
	t.Helper()
	dir := t.TempDir()
	mustRun(t, dir, append([]string{"init", dir}, args...)...)
	return dir
}

// addTx adds a transaction and returns its ID.
func addTx(t *testing.T, dir, category, mode, amount string) string {
	t.Helper()
	out := mustRun(t, dir, "add",
		"--amount", amount, "--to", "Asha", "--date", "2025-01-15T10:30",
		"--why", "pocket money test", "--category", category, "--mode", mode)
	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 2, out)
	assert.Equal(t, "Transaction saved", lines[0])
	return strings.Fields(lines[1])[0]
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := initDir(t)

	for _, d := range []string{"logs", "import", filepath.Join("import", "processed")} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir())
	}

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.False(t, cfg.Git.AutoCommit)

	_, err = run(t, dir, "init", dir)
	assert.ErrorContains(t, err, "already exists")
}

func TestInit_RejectsInvalidBackend(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "init", dir, "--backend", "redis")
	assert.ErrorContains(t, err, "store.backend")
}

func TestScenario(t *testing.T) {
	dir := initDir(t)

	borrowed := addTx(t, dir, "borrowed", "cash", "500")
	assert.Contains(t, mustRun(t, dir, "balance"), "Balance: ₹500.00")

	spend := addTx(t, dir, "for-myself", "online", "200")
	assert.Contains(t, mustRun(t, dir, "balance"), "Balance: ₹300.00")

	out := mustRun(t, dir, "delete", "for-myself", spend)
	assert.Contains(t, out, "Transaction deleted")
	assert.Contains(t, out, "Balance: ₹500.00")

	out = mustRun(t, dir, "edit", "borrowed", borrowed, "--category", "invested")
	assert.Contains(t, out, "Transaction updated")
	assert.Contains(t, out, borrowed)
	assert.Contains(t, out, "Balance: -₹500.00")

	out = mustRun(t, dir, "list", "invested")
	assert.Contains(t, out, "Hand Cash: 1 | Online: 0")
	assert.Contains(t, out, id.Short(borrowed))
	assert.Contains(t, out, "Total: ₹500.00")
}

func TestAdd_ValidationFails(t *testing.T) {
	dir := initDir(t)

	_, err := run(t, dir, "add", "--amount", "0", "--to", "Asha", "--why", "snacks", "--category", "for-myself")
	assert.EqualError(t, err, "Enter a valid amount (> 0)")

	_, err = run(t, dir, "add", "--amount", "5", "--to", "Asha", "--why", "ab", "--category", "for-myself")
	assert.EqualError(t, err, "Add a short reason (min 3 chars)")

	_, err = run(t, dir, "add", "--amount", "5", "--to", "Asha", "--why", "snacks", "--category", "rent")
	assert.EqualError(t, err, "Select a category")

	assert.Contains(t, mustRun(t, dir, "balance"), "Balance: ₹0.00")
}

func TestEdit_ByPrefixKeepsUnsetFields(t *testing.T) {
	dir := t.TempDir()
	txID := addTx(t, dir, "gave-money", "cash", "40")

	mustRun(t, dir, "edit", "gave-money", id.Short(txID), "--amount", "25")

	var snap map[string]map[string][]map[string]any
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, dir, "dump")), &snap))
	cash := snap["gave-money"]["cash"]
	require.Len(t, cash, 1)
	assert.Equal(t, txID, cash[0]["id"])
	assert.Equal(t, "Asha", cash[0]["toWhom"])
	assert.Equal(t, "cash", cash[0]["type"])
	assert.Equal(t, "cash", cash[0]["mode"])
	assert.Contains(t, mustRun(t, dir, "balance"), "Balance: -₹25.00")
}

func TestDelete_NotFound(t *testing.T) {
	dir := t.TempDir()
	txID := addTx(t, dir, "donated", "online", "10")

	_, err := run(t, dir, "delete", "borrowed", txID)
	assert.EqualError(t, err, "Transaction not found")
	_, err = run(t, dir, "edit", "donated", "nope", "--amount", "1")
	assert.EqualError(t, err, "Transaction not found")

	assert.Contains(t, mustRun(t, dir, "balance"), "Balance: -₹10.00")
}

func TestList_UnknownCategory(t *testing.T) {
	_, err := run(t, t.TempDir(), "list", "rent")
	assert.EqualError(t, err, "Unknown category")
}

func TestList_Empty(t *testing.T) {
	out := mustRun(t, t.TempDir(), "list")
	assert.Contains(t, out, "Spend (for-myself)")
	assert.Contains(t, out, "(none)")
}

func TestBalanceAddAndClear(t *testing.T) {
	dir := initDir(t)

	out := mustRun(t, dir, "balance", "add", "1000")
	assert.Contains(t, out, "Balance Added")
	assert.Contains(t, out, "Balance: ₹1000.00")

	_, err := run(t, dir, "balance", "add", "-5")
	assert.Error(t, err)

	addTx(t, dir, "for-myself", "cash", "250")
	addTx(t, dir, "borrowed", "online", "50")

	_, err = run(t, dir, "clear")
	assert.ErrorContains(t, err, "--yes")

	out = mustRun(t, dir, "clear", "--yes")
	assert.Contains(t, out, "All data cleared")
	assert.Contains(t, out, "Balance: ₹1000.00")
}

func TestVerify(t *testing.T) {
	dir := initDir(t)
	mustRun(t, dir, "balance", "add", "100")
	addTx(t, dir, "invested", "online", "30")

	out := mustRun(t, dir, "verify")
	assert.Contains(t, out, "Transactions: 1")
	assert.Contains(t, out, "Manual additions: ₹100.00")
	assert.Contains(t, out, "OK")
}

func TestVerify_ReportsProblems(t *testing.T) {
	dir := initDir(t)
	// a borrowed transaction stored without its balance effect
	data := `{"pm_balance": "0", "pm_txs": "{\"borrowed\":{\"cash\":[{\"id\":\"x\",\"amount\":\"5\",\"toWhom\":\"A\",\"dateTime\":\"d\",\"why\":\"why\",\"category\":\"borrowed\",\"type\":\"cash\"}],\"online\":[]}}"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pocketmoney.json"), []byte(data), 0o644))

	out, err := run(t, dir, "verify")
	assert.ErrorContains(t, err, "1 problem")
	assert.Contains(t, out, "problem: balance")
}

func TestExportImport(t *testing.T) {
	src := initDir(t)
	addTx(t, src, "borrowed", "cash", "500")
	addTx(t, src, "for-myself", "online", "12.50")

	csvPath := filepath.Join(t.TempDir(), "export.csv")
	out := mustRun(t, src, "export", "--out", csvPath)
	assert.Contains(t, out, "Exported 2 transactions")

	dst := initDir(t)
	out = mustRun(t, dst, "import", csvPath)
	assert.Contains(t, out, "export.csv: imported 2, rejected 0")
	assert.Contains(t, out, "Balance: ₹487.50")
}

func TestImport_ScansImportDir(t *testing.T) {
	dir := initDir(t)
	backup := `{"donated": {"cash": [{"id": "a", "amount": 20, "toWhom": "Temple", "dateTime": "2025-02-01T08:00", "why": "festival", "category": "donated", "type": "cash"}], "online": []},
"gave-money": {"cash": [], "online": [{"id": "b", "amount": 5, "toWhom": "Ravi", "dateTime": "2025-02-01T09:00", "why": "x", "category": "gave-money", "type": "online"}]}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "backup.json"), []byte(backup), 0o644))

	out := mustRun(t, dir, "import")
	assert.Contains(t, out, "backup.json: imported 1, rejected 1")
	assert.Contains(t, out, "Add a short reason")
	assert.Contains(t, out, "Balance: -₹20.00")

	_, err := os.Stat(filepath.Join(dir, "import", "processed", "backup.json"))
	assert.NoError(t, err)

	assert.Contains(t, mustRun(t, dir, "import"), "Nothing to import")
}

func TestHistory(t *testing.T) {
	dir := initDir(t)
	assert.Contains(t, mustRun(t, dir, "history"), "No activity yet")

	txID := addTx(t, dir, "borrowed", "cash", "80")
	mustRun(t, dir, "delete", "borrowed", txID)

	entries, err := activity.Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "create", entries[0].Action)
	assert.Equal(t, "delete", entries[1].Action)

	out := mustRun(t, dir, "history", "-n", "1")
	assert.Contains(t, out, "delete")
	assert.NotContains(t, out, "create")
}

func TestSQLiteBackendPersists(t *testing.T) {
	dir := initDir(t, "--backend", "sqlite")
	addTx(t, dir, "borrowed", "cash", "75")

	assert.Contains(t, mustRun(t, dir, "balance"), "Balance: ₹75.00")
	_, err := os.Stat(filepath.Join(dir, "pocketmoney.db"))
	assert.NoError(t, err)
}

func TestInvalidEnvOverride(t *testing.T) {
	dir := initDir(t)
	t.Setenv(config.EnvLogLevel, "loud")

	_, err := run(t, dir, "balance")
	assert.ErrorContains(t, err, "invalid config")
}

func TestGitAutoCommit(t *testing.T) {
	if !gitops.Available() {
		t.Skip("git not installed")
	}
	dir := initDir(t, "--git")
	addTx(t, dir, "donated", "cash", "15")
	mustRun(t, dir, "balance", "add", "50")

	log := exec.Command("git", "log", "--format=%s")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	subjects := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, subjects, 3)
	assert.Equal(t, "balance: add 50", subjects[0])
	assert.True(t, strings.HasPrefix(subjects[1], "add: donated "))
	assert.Equal(t, "init: PocketMoney data", subjects[2])
}
