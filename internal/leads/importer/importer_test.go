package importer

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"power_dialer_backend/internal/leads/domain"
	"power_dialer_backend/internal/leads/repository"
	"power_dialer_backend/platform/apperr"
	"power_dialer_backend/platform/validator"

	"github.com/google/uuid"
)

var importedAt = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type countingStore struct {
	*repository.MemoryRepo
	batches []int
}

func (s *countingStore) InsertBatch(ctx context.Context, leads []repository.Lead) (int, error) {
	s.batches = append(s.batches, len(leads))
	return s.MemoryRepo.InsertBatch(ctx, leads)
}

func row(phone, kgmid string) Row {
	return Row{
		BusinessName:   "Tony's Pizzeria",
		ContactName:    "Tony",
		Phone:          phone,
		KGMID:          kgmid,
		Timezone:       "America/New_York",
		UTCOffsetHours: -4,
	}
}

func TestImportDeduplicatesAgainstStoreAndBatch(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemory()
	kg := "/g/existing"
	mem.Put(repository.Lead{
		ID: uuid.New(), Phone: "+16502530000", KGMID: &kg,
		Status: domain.StatusNew, CampaignID: "wave1", CreatedAt: importedAt,
	})

	im := New(mem, nil, validator.New(), "US", "wave1")
	res, err := im.Import(ctx, []Row{
		// phone already stored
		row("(650) 253-0000", ""),
		// kgmid already stored
		row("650 253 0001", "/g/existing"),
		row("650 253 0002", "/g/new"),
		// repeats the previous row's phone, then its kgmid
		row("+1 650-253-0002", ""),
		row("650 253 0003", "/g/new"),
		row("not a phone", ""),
	}, importedAt)
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if res.Imported != 1 || res.Duplicates != 4 {
		t.Fatalf("expected 1 imported and 4 duplicates, got %d and %d", res.Imported, res.Duplicates)
	}
	if len(res.Errors) != 1 || !strings.HasPrefix(res.Errors[0], "Row 6:") {
		t.Fatalf("expected one error for row 6, got %v", res.Errors)
	}

	count, err := mem.CountQueued(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 queued leads, got %d", count)
	}

	matches, err := mem.FindExistingContacts(ctx, []string{"+16502530002"}, nil)
	if err != nil {
		t.Fatalf("find contacts: %v", err)
	}
	if !matches.Phones["+16502530002"] {
		t.Fatal("expected imported phone to be found")
	}
}

func TestImportAppliesDefaultsAndNormalizes(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemory()
	im := New(mem, nil, validator.New(), "", "")

	r := row("650-253-0004", "")
	r.Email = "  owner@example.com "
	if _, err := im.Import(ctx, []Row{r}, importedAt); err != nil {
		t.Fatalf("import: %v", err)
	}

	fresh, err := mem.ListFresh(ctx, []string{"wave1"}, 10)
	if err != nil {
		t.Fatalf("list fresh: %v", err)
	}
	if len(fresh) != 1 {
		t.Fatalf("expected 1 fresh lead, got %d", len(fresh))
	}
	got := fresh[0]
	if got.Phone != "+16502530004" {
		t.Fatalf("expected E.164 phone, got %q", got.Phone)
	}
	if got.Status != domain.StatusNew || got.RetryCount != 0 {
		t.Fatalf("expected NEW with no retries, got %s/%d", got.Status, got.RetryCount)
	}
	if got.KGMID != nil {
		t.Fatalf("expected empty kgmid to be stored as nil, got %q", *got.KGMID)
	}
	if got.Email == nil || *got.Email != "owner@example.com" {
		t.Fatalf("expected trimmed email, got %v", got.Email)
	}
	if got.UTCOffsetHours != -4 {
		t.Fatalf("expected offset -4, got %d", got.UTCOffsetHours)
	}
}

func TestImportTrimsFieldsBeforeValidating(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemory()
	im := New(mem, nil, validator.New(), "US", "wave1")

	r := row(" 650-253-0010 ", " /g/padded ")
	r.Email = "\towner@example.com  "
	r.Timezone = " America/Chicago "
	r.Campaign = " wave1 "
	res, err := im.Import(ctx, []Row{r}, importedAt)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Imported != 1 || len(res.Errors) != 0 {
		t.Fatalf("expected padded row to import cleanly, got %+v", res)
	}

	fresh, err := mem.ListFresh(ctx, []string{"wave1"}, 1)
	if err != nil {
		t.Fatalf("list fresh: %v", err)
	}
	if len(fresh) != 1 {
		t.Fatalf("expected 1 fresh lead, got %d", len(fresh))
	}
	got := fresh[0]
	if got.Timezone != "America/Chicago" || got.CampaignID != "wave1" {
		t.Fatalf("expected trimmed timezone and campaign, got %q and %q", got.Timezone, got.CampaignID)
	}
	if got.KGMID == nil || *got.KGMID != "/g/padded" {
		t.Fatalf("expected trimmed kgmid, got %v", got.KGMID)
	}
}

func TestImportKeepsUploadOrderForFreshLeads(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemory()
	im := New(mem, nil, validator.New(), "US", "wave1")

	const n = 20
	rows := make([]Row, 0, n)
	want := make([]string, 0, n)
	for i := 0; i < n; i++ {
		p := fmt.Sprintf("+1650253%04d", 2000+i)
		rows = append(rows, row(p, ""))
		want = append(want, p)
	}
	if _, err := im.Import(ctx, rows, importedAt); err != nil {
		t.Fatalf("import: %v", err)
	}

	for attempt := 0; attempt < 10; attempt++ {
		fresh, err := mem.ListFresh(ctx, []string{"wave1"}, n)
		if err != nil {
			t.Fatalf("list fresh: %v", err)
		}
		if len(fresh) != n {
			t.Fatalf("expected %d fresh leads, got %d", n, len(fresh))
		}
		for i, lead := range fresh {
			if lead.Phone != want[i] {
				t.Fatalf("attempt %d: position %d holds %s, expected %s", attempt, i, lead.Phone, want[i])
			}
		}
	}
}

func TestImportRejectsInvalidRowsIndividually(t *testing.T) {
	im := New(repository.NewMemory(), nil, validator.New(), "US", "wave1")

	badZone := row("650-253-0005", "")
	badZone.Timezone = "Mars/Olympus"
	badOffset := row("650-253-0006", "")
	badOffset.UTCOffsetHours = 20
	noName := row("650-253-0007", "")
	noName.BusinessName = "   "

	res, err := im.Import(context.Background(), []Row{badZone, badOffset, noName}, importedAt)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Imported != 0 || len(res.Errors) != 3 {
		t.Fatalf("expected 3 row errors and nothing imported, got %+v", res)
	}
}

func TestImportRequestLimits(t *testing.T) {
	im := New(repository.NewMemory(), nil, validator.New(), "US", "wave1")

	if _, err := im.Import(context.Background(), nil, importedAt); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for empty rows, got %v", err)
	}
	if _, err := im.Import(context.Background(), make([]Row, MaxRows+1), importedAt); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error above %d rows, got %v", MaxRows, err)
	}
}

func TestImportWritesInChunks(t *testing.T) {
	store := &countingStore{MemoryRepo: repository.NewMemory()}
	im := New(store, nil, nil, "US", "wave1")

	rows := make([]Row, 0, chunkSize+10)
	for i := 0; i < chunkSize+10; i++ {
		rows = append(rows, row(fmt.Sprintf("+1650253%04d", 1000+i), ""))
	}

	res, err := im.Import(context.Background(), rows, importedAt)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Imported != chunkSize+10 {
		t.Fatalf("expected %d imported, got %d", chunkSize+10, res.Imported)
	}
	if len(store.batches) != 2 || store.batches[0] != chunkSize || store.batches[1] != 10 {
		t.Fatalf("expected batches [%d 10], got %v", chunkSize, store.batches)
	}
}

type campaignSet map[string]bool

func (c campaignSet) CampaignExists(_ context.Context, id string) (bool, error) {
	return c[id], nil
}

func TestImportRejectsUnknownCampaign(t *testing.T) {
	im := New(repository.NewMemory(), campaignSet{"wave1": true}, validator.New(), "US", "wave1")

	known := row("650-253-0008", "")
	unknown := row("650-253-0009", "")
	unknown.Campaign = "wave9"

	res, err := im.Import(context.Background(), []Row{known, unknown}, importedAt)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Imported != 1 {
		t.Fatalf("expected 1 imported, got %d", res.Imported)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "wave9") {
		t.Fatalf("expected one error naming wave9, got %v", res.Errors)
	}
}
