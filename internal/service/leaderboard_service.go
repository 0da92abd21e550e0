package service

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/yourusername/quizpin-api/internal/domain/repository"
)

// globalLeaderboardCacheTTL задаёт время жизни кеша глобального лидерборда
const globalLeaderboardCacheTTL = 60 * time.Second

// globalLeaderboardCacheKey - ключ кеша глобального лидерборда
const globalLeaderboardCacheKey = "quizpin:leaderboard:global"

// LeaderboardEntry представляет строку лидерборда одной викторины
type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	PlayerID       string `json:"player_id"`
	DisplayName    string `json:"display_name"`
	Score          int    `json:"score"`
	CorrectAnswers int    `json:"correct_answers"`
	TotalTimeMs    int64  `json:"total_time_ms"`
}

// GlobalLeaderboardEntry представляет строку глобального лидерборда.
// Игроки разных сессий агрегируются по имени без учёта регистра.
type GlobalLeaderboardEntry struct {
	Rank           int    `json:"rank"`
	DisplayName    string `json:"display_name"`
	TotalScore     int    `json:"total_score"`
	CorrectAnswers int    `json:"correct_answers"`
	QuizzesPlayed  int    `json:"quizzes_played"`
}

// LeaderboardService считает турнирные таблицы по реестру ответов
type LeaderboardService struct {
	quizRepo   repository.QuizRepository
	playerRepo repository.PlayerRepository
	answerRepo repository.AnswerRepository
	cacheRepo  repository.CacheRepository
}

// NewLeaderboardService создает новый сервис лидербордов
func NewLeaderboardService(
	quizRepo repository.QuizRepository,
	playerRepo repository.PlayerRepository,
	answerRepo repository.AnswerRepository,
	cacheRepo repository.CacheRepository,
) *LeaderboardService {
	return &LeaderboardService{
		quizRepo:   quizRepo,
		playerRepo: playerRepo,
		answerRepo: answerRepo,
		cacheRepo:  cacheRepo,
	}
}

// leaderboardCacheKey формирует ключ замороженного снимка завершённой викторины
func leaderboardCacheKey(quizID string) string {
	return "quizpin:leaderboard:" + quizID
}

// Leaderboard возвращает турнирную таблицу викторины.
// Для завершённой викторины таблица отдается из замороженного снимка в Redis.
func (s *LeaderboardService) Leaderboard(quizID string) ([]LeaderboardEntry, error) {
	quiz, err := s.quizRepo.GetByID(quizID)
	if err != nil {
		return nil, err
	}

	if quiz.IsCompleted() {
		var cached []LeaderboardEntry
		if err := s.cacheRepo.GetJSON(leaderboardCacheKey(quizID), &cached); err == nil {
			return cached, nil
		}
		// Снимок потерян (например, Redis перезапускался) - пересчитываем и замораживаем заново
		return s.FreezeSnapshot(quizID)
	}

	return s.compute(quizID)
}

// FreezeSnapshot пересчитывает лидерборд и фиксирует его в Redis без TTL.
// Вызывается при завершении викторины: реестр ответов с этого момента
// не меняется, поэтому снимок окончательный.
func (s *LeaderboardService) FreezeSnapshot(quizID string) ([]LeaderboardEntry, error) {
	entries, err := s.compute(quizID)
	if err != nil {
		return nil, err
	}
	if err := s.cacheRepo.SetJSON(leaderboardCacheKey(quizID), entries, 0); err != nil {
		log.Printf("[LeaderboardService] Не удалось сохранить снимок лидерборда викторины ID=%s: %v", quizID, err)
	}
	return entries, nil
}

// compute строит детерминированную турнирную таблицу:
// счёт по убыванию, при равенстве - меньшее суммарное время, затем более
// раннее присоединение, затем ID игрока.
func (s *LeaderboardService) compute(quizID string) ([]LeaderboardEntry, error) {
	players, err := s.playerRepo.GetByQuizID(quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	answers, err := s.answerRepo.GetByQuizID(quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}

	type playerStanding struct {
		entry    LeaderboardEntry
		joinedAt time.Time
	}

	standings := make([]playerStanding, 0, len(players))
	byPlayer := make(map[string]*playerStanding, len(players))
	for _, p := range players {
		standings = append(standings, playerStanding{
			entry: LeaderboardEntry{
				PlayerID:    p.ID,
				DisplayName: p.DisplayName,
			},
			joinedAt: p.JoinedAt,
		})
		byPlayer[p.ID] = &standings[len(standings)-1]
	}

	for _, a := range answers {
		st, ok := byPlayer[a.PlayerID]
		if !ok {
			continue
		}
		st.entry.Score += a.Score
		st.entry.TotalTimeMs += a.TimeTakenMs
		if a.IsCorrect {
			st.entry.CorrectAnswers++
		}
	}

	sort.Slice(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.entry.Score != b.entry.Score {
			return a.entry.Score > b.entry.Score
		}
		if a.entry.TotalTimeMs != b.entry.TotalTimeMs {
			return a.entry.TotalTimeMs < b.entry.TotalTimeMs
		}
		if !a.joinedAt.Equal(b.joinedAt) {
			return a.joinedAt.Before(b.joinedAt)
		}
		return a.entry.PlayerID < b.entry.PlayerID
	})

	entries := make([]LeaderboardEntry, 0, len(standings))
	for i, st := range standings {
		st.entry.Rank = i + 1
		entries = append(entries, st.entry)
	}
	return entries, nil
}

// GlobalLeaderboard агрегирует результаты всех завершённых викторин.
// Игроки группируются по имени без учёта регистра; отображается имя
// из первой встреченной записи.
func (s *LeaderboardService) GlobalLeaderboard() ([]GlobalLeaderboardEntry, error) {
	var cached []GlobalLeaderboardEntry
	if err := s.cacheRepo.GetJSON(globalLeaderboardCacheKey, &cached); err == nil {
		return cached, nil
	}

	quizzes, err := s.quizRepo.ListCompleted()
	if err != nil {
		return nil, fmt.Errorf("failed to list completed quizzes: %w", err)
	}

	type globalStanding struct {
		entry   GlobalLeaderboardEntry
		quizzes map[string]bool
	}
	byName := make(map[string]*globalStanding)

	for _, quiz := range quizzes {
		entries, err := s.Leaderboard(quiz.ID)
		if err != nil {
			log.Printf("[LeaderboardService] Пропускаем викторину ID=%s в глобальном лидерборде: %v", quiz.ID, err)
			continue
		}
		for _, e := range entries {
			key := strings.ToLower(e.DisplayName)
			st, ok := byName[key]
			if !ok {
				st = &globalStanding{
					entry:   GlobalLeaderboardEntry{DisplayName: e.DisplayName},
					quizzes: make(map[string]bool),
				}
				byName[key] = st
			}
			st.entry.TotalScore += e.Score
			st.entry.CorrectAnswers += e.CorrectAnswers
			st.quizzes[quiz.ID] = true
		}
	}

	result := make([]GlobalLeaderboardEntry, 0, len(byName))
	for _, st := range byName {
		st.entry.QuizzesPlayed = len(st.quizzes)
		result = append(result, st.entry)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TotalScore != result[j].TotalScore {
			return result[i].TotalScore > result[j].TotalScore
		}
		return strings.ToLower(result[i].DisplayName) < strings.ToLower(result[j].DisplayName)
	})
	for i := range result {
		result[i].Rank = i + 1
	}

	if err := s.cacheRepo.SetJSON(globalLeaderboardCacheKey, result, globalLeaderboardCacheTTL); err != nil {
		log.Printf("[LeaderboardService] Не удалось закешировать глобальный лидерборд: %v", err)
	}
	return result, nil
}
