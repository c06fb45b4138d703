// Command export_audit writes a competition's draw roster and instant-win
// table to CSV files for independent verification.
//
// Usage: export_audit <competitionId> [outputDir]
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ArowuTest/competitions-backend/internal/config"
	"github.com/ArowuTest/competitions-backend/internal/models"
	mongorepo "github.com/ArowuTest/competitions-backend/internal/repositories/mongodb"
	"github.com/ArowuTest/competitions-backend/internal/services"
	"github.com/ArowuTest/competitions-backend/internal/utils"
	"github.com/ArowuTest/competitions-backend/pkg/mongodb"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}
	if len(os.Args) < 2 {
		log.Fatal("competition ID is required as a command line argument")
	}
	competitionID, err := primitive.ObjectIDFromHex(os.Args[1])
	if err != nil {
		log.Fatalf("Invalid competition ID %q: %v", os.Args[1], err)
	}
	outputDir := "."
	if len(os.Args) > 2 {
		outputDir = os.Args[2]
	}

	mongoURI := config.GetEnv("MONGODB_URI", "mongodb://localhost:27017/?replicaSet=rs0")
	dbName := config.GetEnv("MONGODB_DATABASE", "competitions")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := mongodb.NewClient(ctx, mongoURI, 10*time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	store := mongorepo.NewStore(client.Client(), client.Database(dbName))
	if err := export(ctx, store, competitionID, outputDir); err != nil {
		log.Fatalf("Failed to export audit: %v", err)
	}
}

func export(ctx context.Context, store *mongorepo.Store, competitionID primitive.ObjectID, outputDir string) error {
	competition, err := store.Competitions().FindByID(ctx, competitionID)
	if err != nil {
		return fmt.Errorf("failed to load competition: %w", err)
	}
	entries, err := store.Entries().FindCompletedByCompetition(ctx, competitionID)
	if err != nil {
		return fmt.Errorf("failed to load entries: %w", err)
	}
	roster, err := services.BuildRoster(competition, entries)
	if err != nil {
		return err
	}
	prizes, err := store.InstantPrizes().FindByCompetition(ctx, competitionID)
	if err != nil {
		return fmt.Errorf("failed to load prizes: %w", err)
	}
	tickets, err := store.InstantWinTickets().FindByCompetition(ctx, competitionID)
	if err != nil {
		return fmt.Errorf("failed to load instant-win tickets: %w", err)
	}

	prefix := filepath.Join(outputDir, competitionID.Hex())
	if err := writeFile(prefix+"_roster.csv", func(w io.Writer) error { return writeRoster(w, roster) }); err != nil {
		return err
	}
	if err := writeFile(prefix+"_instant_wins.csv", func(w io.Writer) error { return writeInstantWins(w, prizes, tickets) }); err != nil {
		return err
	}

	log.Printf("Exported %d roster tickets and %d instant-win tickets to %s_*.csv", len(roster), len(tickets), prefix)
	log.Printf("Roster sha256: %s", services.RosterDigest(roster))
	if competition.DrawID != nil {
		log.Printf("Draw %s: ticket #%d", *competition.DrawID, *competition.WinningTicketNumber)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// writeRoster writes one row per ticket in selection order; the index column is
// the value a draw's selectedIndex refers to.
func writeRoster(w io.Writer, roster []models.RosterTicket) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"index", "ticketNumber", "entryId", "userId"}); err != nil {
		return err
	}
	for i, t := range roster {
		if err := cw.Write([]string{
			strconv.Itoa(i),
			strconv.Itoa(t.TicketNumber),
			t.EntryID.Hex(),
			t.UserID.Hex(),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeInstantWins(w io.Writer, prizes []*models.InstantPrize, tickets []*models.InstantWinTicket) error {
	byID := make(map[primitive.ObjectID]*models.InstantPrize, len(prizes))
	for _, p := range prizes {
		byID[p.ID] = p
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ticketNumber", "prize", "type", "value", "winnerId", "claimedAt"}); err != nil {
		return err
	}
	for _, t := range tickets {
		name, prizeType, value := "unknown", "", ""
		if p, ok := byID[t.PrizeID]; ok {
			name, prizeType, value = p.Name, string(p.Type), utils.FormatPence(p.Value)
		}
		winner, claimedAt := "", ""
		if t.WinnerID != nil {
			winner = t.WinnerID.Hex()
		}
		if t.ClaimedAt != nil {
			claimedAt = t.ClaimedAt.UTC().Format(time.RFC3339)
		}
		if err := cw.Write([]string{strconv.Itoa(t.TicketNumber), name, prizeType, value, winner, claimedAt}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
