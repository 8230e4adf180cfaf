package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/player"
)

// ErrPlayerNotFound is returned when a player lookup yields no results.
var ErrPlayerNotFound = errors.New("player not found")

// ErrPlayerExists is returned when creating a player whose ID is already used.
var ErrPlayerExists = errors.New("player already exists")

// PlayerRepository provides player profile and battle report persistence.
type PlayerRepository struct {
	db *pgxpool.Pool
}

// NewPlayerRepository creates a PlayerRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

const playerColumns = `id, name, level, experience, hp, max_hp, mana, max_mana, stamina, max_stamina,
	attack, physical_power, magic_power, physical_resistance, magic_resistance,
	agility, weight, critical_chance, skills`

func scanPlayer(row pgx.Row) (player.Profile, error) {
	var p player.Profile
	err := row.Scan(
		&p.ID, &p.Name, &p.Level, &p.Experience,
		&p.HP, &p.MaxHP, &p.Mana, &p.MaxMana, &p.Stamina, &p.MaxStamina,
		&p.Stats.Attack, &p.Stats.PhysicalPower, &p.Stats.MagicPower,
		&p.Stats.PhysicalResistance, &p.Stats.MagicResistance,
		&p.Stats.Agility, &p.Stats.Weight, &p.Stats.CriticalChance, &p.Skills,
	)
	return p, err
}

// Create inserts a new player profile.
//
// Precondition: p must pass Validate.
// Postcondition: Returns ErrPlayerExists on a duplicate ID.
func (r *PlayerRepository) Create(ctx context.Context, p player.Profile) error {
	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO players (`+playerColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		p.ID, p.Name, p.Level, p.Experience,
		p.HP, p.MaxHP, p.Mana, p.MaxMana, p.Stamina, p.MaxStamina,
		p.Stats.Attack, p.Stats.PhysicalPower, p.Stats.MagicPower,
		p.Stats.PhysicalResistance, p.Stats.MagicResistance,
		p.Stats.Agility, p.Stats.Weight, p.Stats.CriticalChance, skills,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrPlayerExists
		}
		return fmt.Errorf("inserting player: %w", err)
	}
	return nil
}

// GetByID retrieves a player profile.
//
// Postcondition: Returns the profile or ErrPlayerNotFound.
func (r *PlayerRepository) GetByID(ctx context.Context, id string) (player.Profile, error) {
	p, err := scanPlayer(r.db.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return player.Profile{}, ErrPlayerNotFound
		}
		return player.Profile{}, fmt.Errorf("querying player: %w", err)
	}
	return p, nil
}

// RecordOutcome stores o as a battle report and folds it into the player's
// experience and hp, in one transaction.
//
// Precondition: o.PlayerID must reference an existing player.
// Postcondition: Returns ErrPlayerNotFound when the player does not exist;
// nothing is written on error.
func (r *PlayerRepository) RecordOutcome(ctx context.Context, o combat.Outcome) error {
	logJSON, err := json.Marshal(o.Log)
	if err != nil {
		return fmt.Errorf("encoding battle log: %w", err)
	}
	lootJSON, err := json.Marshal(o.Loot)
	if err != nil {
		return fmt.Errorf("encoding loot: %w", err)
	}

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		p, err := scanPlayer(tx.QueryRow(ctx,
			`SELECT `+playerColumns+` FROM players WHERE id = $1 FOR UPDATE`, o.PlayerID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrPlayerNotFound
			}
			return fmt.Errorf("locking player: %w", err)
		}
		p.Apply(o)

		if _, err := tx.Exec(ctx, `
			UPDATE players SET experience = $2, hp = $3, updated_at = NOW()
			WHERE id = $1`,
			p.ID, p.Experience, p.HP,
		); err != nil {
			return fmt.Errorf("updating player: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO battle_reports
				(id, player_id, encounter_id, outcome, rounds, experience, hp_loss, final_hp, loot, log)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			uuid.NewString(), o.PlayerID, o.EncounterID, o.Kind.String(), o.Rounds,
			o.Experience, o.HPLoss, o.FinalHP, lootJSON, logJSON,
		); err != nil {
			return fmt.Errorf("inserting battle report: %w", err)
		}
		return nil
	})
}

// BattleReport is a stored encounter summary.
type BattleReport struct {
	ID          string
	PlayerID    string
	EncounterID string
	Outcome     string
	Rounds      int
	Experience  int
	HPLoss      int
	FinalHP     int
	Loot        []combat.LootItem
	Log         []combat.LogEntry
	CreatedAt   time.Time
}

// Reports returns the player's most recent battle reports, newest first.
//
// Precondition: limit must be > 0.
func (r *PlayerRepository) Reports(ctx context.Context, playerID string, limit int) ([]BattleReport, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, player_id, encounter_id, outcome, rounds, experience, hp_loss, final_hp, loot, log, created_at
		FROM battle_reports WHERE player_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2`,
		playerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing battle reports: %w", err)
	}
	defer rows.Close()

	reports := make([]BattleReport, 0)
	for rows.Next() {
		var br BattleReport
		var lootJSON, logJSON []byte
		if err := rows.Scan(
			&br.ID, &br.PlayerID, &br.EncounterID, &br.Outcome, &br.Rounds,
			&br.Experience, &br.HPLoss, &br.FinalHP, &lootJSON, &logJSON, &br.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning battle report: %w", err)
		}
		if err := json.Unmarshal(lootJSON, &br.Loot); err != nil {
			return nil, fmt.Errorf("decoding loot: %w", err)
		}
		if err := json.Unmarshal(logJSON, &br.Log); err != nil {
			return nil, fmt.Errorf("decoding battle log: %w", err)
		}
		reports = append(reports, br)
	}
	return reports, rows.Err()
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}

// Store binds a PlayerRepository to one player and implements
// combat.PlayerProvider.
type Store struct {
	repo     *PlayerRepository
	playerID string
}

// NewStore creates a Store for playerID.
func NewStore(repo *PlayerRepository, playerID string) *Store {
	return &Store{repo: repo, playerID: playerID}
}

var _ combat.PlayerProvider = (*Store)(nil)

// PlayerStats loads the bound player's profile.
func (s *Store) PlayerStats(ctx context.Context) (combat.PlayerStats, error) {
	p, err := s.repo.GetByID(ctx, s.playerID)
	if err != nil {
		return combat.PlayerStats{}, err
	}
	return p.CombatStats(), nil
}

// ApplyBattleOutcome records o against the bound player.
func (s *Store) ApplyBattleOutcome(ctx context.Context, o combat.Outcome) error {
	if o.PlayerID == "" {
		o.PlayerID = s.playerID
	}
	return s.repo.RecordOutcome(ctx, o)
}

// Recent returns the bound player's latest battle reports as records.
func (s *Store) Recent(ctx context.Context, limit int) ([]player.Record, error) {
	if limit < 1 {
		return nil, nil
	}
	reports, err := s.repo.Reports(ctx, s.playerID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]player.Record, 0, len(reports))
	for _, br := range reports {
		out = append(out, player.Record{
			EncounterID: br.EncounterID,
			Outcome:     br.Outcome,
			Rounds:      br.Rounds,
			Experience:  br.Experience,
			HPLoss:      br.HPLoss,
			Loot:        br.Loot,
			At:          br.CreatedAt,
		})
	}
	return out, nil
}

var _ player.History = (*Store)(nil)
