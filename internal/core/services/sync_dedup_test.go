package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"github.com/engage-labs/engage-social/internal/core/domain"
)

const syncDedupFeature = `
Feature: content import deduplication
  A sync pass imports each remote item exactly once. Items already in
  the import ledger are skipped, and re-running a sync never creates
  duplicate feed posts.

  Scenario: first sync imports everything
    Given a connected Instagram account
    And the platform returns 5 recent items
    When a sync runs
    Then 5 items are imported and 0 are skipped

  Scenario: repeated sync imports nothing
    Given a connected Instagram account
    And the platform returns 5 recent items
    And a sync has already run
    When a sync runs
    Then 0 items are imported and 5 are skipped

  Scenario: partial overlap imports only the new items
    Given a connected Instagram account
    And the platform returns 5 recent items
    And 2 of them are already in the import ledger
    When a sync runs
    Then 3 items are imported and 2 are skipped
`

type syncDedupWorld struct {
	fixture *syncFixture
	result  *domain.SyncResult
}

func (w *syncDedupWorld) aConnectedInstagramAccount() error {
	w.fixture = newSyncFixture()
	conn := &domain.SocialConnection{
		UserID:         "user-1",
		Platform:       domain.PlatformInstagram,
		PlatformUserID: "ig-uid",
		AccessToken:    "live-token",
		TokenExpiresAt: time.Now().Add(time.Hour),
	}
	return w.fixture.connections.Upsert(context.Background(), conn)
}

func (w *syncDedupWorld) thePlatformReturnsRecentItems(count int) error {
	w.fixture.provider.MediaItems = mediaItems(count)
	return nil
}

func (w *syncDedupWorld) itemsAlreadyInLedger(count int) error {
	conn, err := w.fixture.connections.Get(context.Background(), "user-1", domain.PlatformInstagram)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		err := w.fixture.imports.Record(context.Background(), &domain.SocialImport{
			ConnectionID:   conn.ID,
			PlatformPostID: fmt.Sprintf("m%d", i),
			MediaType:      domain.MediaTypeImage,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *syncDedupWorld) aSyncRuns() error {
	result, err := w.fixture.svc.Sync(context.Background(), "user-1", domain.PlatformInstagram)
	if err != nil {
		return err
	}
	w.result = result
	return nil
}

func (w *syncDedupWorld) itemsImportedAndSkipped(imported, skipped int) error {
	if w.result.Imported != imported || w.result.Skipped != skipped {
		return fmt.Errorf("got imported=%d skipped=%d, want imported=%d skipped=%d",
			w.result.Imported, w.result.Skipped, imported, skipped)
	}
	return nil
}

func initializeSyncDedupScenario(sc *godog.ScenarioContext) {
	w := &syncDedupWorld{}
	sc.Given(`^a connected Instagram account$`, w.aConnectedInstagramAccount)
	sc.Given(`^the platform returns (\d+) recent items$`, w.thePlatformReturnsRecentItems)
	sc.Given(`^(\d+) of them are already in the import ledger$`, w.itemsAlreadyInLedger)
	sc.Given(`^a sync has already run$`, w.aSyncRuns)
	sc.When(`^a sync runs$`, w.aSyncRuns)
	sc.Then(`^(\d+) items are imported and (\d+) are skipped$`, w.itemsImportedAndSkipped)
}

func TestSyncDeduplication(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeSyncDedupScenario,
		Options: &godog.Options{
			Format: "pretty",
			FeatureContents: []godog.Feature{
				{Name: "sync_dedup.feature", Contents: []byte(syncDedupFeature)},
			},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("sync deduplication scenarios failed")
	}
}
