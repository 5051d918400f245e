package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"bitbucket.org/nusalink/ispbilling_backend/config"
	"bitbucket.org/nusalink/ispbilling_backend/models"
	"bitbucket.org/nusalink/ispbilling_backend/workflow"
	"github.com/shopspring/decimal"
)

// Regression: the billing cycle engine must be idempotent per
// (customer, period) and fold the previous period's unpaid amount forward
// exactly once.
func TestGenerateMonthlyInvoices_IdempotentWithArrears(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "ispbilling_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	pkg, err := models.CreatePackage(ctx, &models.NewPackage{
		Name:  "Home 20M",
		Speed: "20 Mbps",
		Price: decimal.NewFromInt(250000),
	})
	if err != nil {
		t.Fatalf("CreatePackage: %v", err)
	}

	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{
		Name:          "Budi Santoso",
		Email:         "budi@example.com",
		Phone:         "081234567890",
		Address:       "Jl. Merdeka 1",
		PppoeUsername: "budi01",
		PackageId:     pkg.ID,
	})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}

	// July: first run creates, second run skips.
	report, err := workflow.GenerateMonthlyInvoices(ctx, time.July, 2025)
	if err != nil {
		t.Fatalf("GenerateMonthlyInvoices: %v", err)
	}
	if report.Created != 1 || report.Skipped != 0 || report.Failed != 0 {
		t.Fatalf("first run report = %+v", report)
	}

	report, err = workflow.GenerateMonthlyInvoices(ctx, time.July, 2025)
	if err != nil {
		t.Fatalf("GenerateMonthlyInvoices rerun: %v", err)
	}
	if report.Created != 0 || report.Skipped != 1 {
		t.Fatalf("rerun must skip, report = %+v", report)
	}

	// August: July is still unpaid, so its amount folds forward with a note.
	report, err = workflow.GenerateMonthlyInvoices(ctx, time.August, 2025)
	if err != nil {
		t.Fatalf("GenerateMonthlyInvoices august: %v", err)
	}
	if report.Created != 1 {
		t.Fatalf("august report = %+v", report)
	}

	august, err := models.GetUnpaidInvoiceForPeriod(ctx, customer.ID, "08-2025")
	if err != nil || august == nil {
		t.Fatalf("august invoice lookup: %v %v", august, err)
	}
	if !august.Amount.Equal(decimal.NewFromInt(500000)) {
		t.Errorf("august amount = %s, want 500000 (250000 + 250000 arrears)", august.Amount)
	}
	if !strings.Contains(august.Notes, "07-2025") {
		t.Errorf("august notes = %q, want arrears note for 07-2025", august.Notes)
	}

	// Paying July must not stop September from billing the plain price
	// (August already carries the arrears).
	july, err := models.GetUnpaidInvoiceForPeriod(ctx, customer.ID, "07-2025")
	if err != nil || july == nil {
		t.Fatalf("july invoice lookup: %v %v", july, err)
	}
	if _, _, err := models.CreatePayment(ctx, july.ID, &models.NewPayment{Method: models.PaymentMethodCash}); err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}

	paid, err := models.GetInvoice(ctx, july.ID)
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if paid.Status != models.InvoiceStatusPaid {
		t.Errorf("july status = %q, want paid", paid.Status)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("ispbilling-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("ispbilling-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=ispbilling_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
