package db

import (
	"fmt"
	"time"
)

// User table. Read-only for the matching engine except for cascade deletion.
type User struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	Username     string    `gorm:"uniqueIndex;size:64;not null"`
	Email        string    `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	FirstName    string    `gorm:"size:64"`
	LastName     string    `gorm:"size:64"`
	UserLevelID  uint64    `gorm:"not null;default:2"`
	UserType     UserType  `gorm:"size:16;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// JobAd is a posting owned by an employer (UserID).
type JobAd struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	UserID      uint64    `gorm:"not null;index"`
	Title       string    `gorm:"size:128;not null"`
	Description string    `gorm:"type:text"`
	Location    string    `gorm:"size:128"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// Swipe is a directional interest signal from SwiperID toward SwipedID.
//
// Rows are append-only: the same ordered pair may appear many times.
// JobID is set for job swipes and names the posting being evaluated.
//
// Indexes:
//   - idx_swiper_swiped(swiper_id, swiped_id, direction, swipe_type)
//     Serves the reverse-swipe lookup done by the match detector.
//   - idx_swiped(swiped_id)
//     Serves cascade deletes by either party.
type Swipe struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement"`
	SwiperID  uint64         `gorm:"not null;index:idx_swiper_swiped,priority:1"`
	SwipedID  uint64         `gorm:"not null;index:idx_swiper_swiped,priority:2;index:idx_swiped"`
	Direction SwipeDirection `gorm:"size:8;not null;index:idx_swiper_swiped,priority:3"`
	SwipeType SwipeType      `gorm:"size:16;not null;index:idx_swiper_swiped,priority:4"`
	JobID     *uint64
	SwipedAt  time.Time `gorm:"autoCreateTime"`
}

// Match records confirmed mutual interest between two users.
//
// User1ID/User2ID are unordered. PairKey is the canonical (min, max, type, job)
// form of the pair and carries a unique index, so concurrent detections of the
// same reciprocity collapse into a single row.
type Match struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	User1ID   uint64    `gorm:"not null;index"`
	User2ID   uint64    `gorm:"not null;index"`
	MatchType SwipeType `gorm:"size:16;not null"`
	JobID     *uint64
	PairKey   string    `gorm:"size:96;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// HasUser reports whether userID is one of the two parties.
func (m *Match) HasUser(userID uint64) bool {
	return m.User1ID == userID || m.User2ID == userID
}

// OtherUser returns the counter-party of userID.
func (m *Match) OtherUser(userID uint64) (uint64, bool) {
	switch userID {
	case m.User1ID:
		return m.User2ID, true
	case m.User2ID:
		return m.User1ID, true
	}
	return 0, false
}

// PairKey canonicalises an unordered pair so that {a,b} and {b,a} collide.
func PairKey(a, b uint64, t SwipeType, jobID *uint64) string {
	if a > b {
		a, b = b, a
	}
	var job uint64
	if jobID != nil {
		job = *jobID
	}
	return fmt.Sprintf("%d:%d:%s:%d", a, b, t, job)
}

// Chat is the conversation provisioned for a candidate-type match.
// A match owns at most one chat; uniq_chat_match enforces it.
type Chat struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	MatchID   uint64    `gorm:"not null;uniqueIndex:uniq_chat_match"`
	User1ID   uint64    `gorm:"not null;index"`
	User2ID   uint64    `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// HasUser reports whether userID participates in the chat.
func (c *Chat) HasUser(userID uint64) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// UserChat is a chat membership row; one per participant.
type UserChat struct {
	UserID uint64 `gorm:"primaryKey"`
	ChatID uint64 `gorm:"primaryKey;index"`
}

type Message struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	ChatID      uint64    `gorm:"not null;index"`
	UserID      uint64    `gorm:"not null;index"`
	MessageText string    `gorm:"type:text;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// Notification points at a Match. Its display payload is computed on read.
type Notification struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	MatchID     uint64    `gorm:"not null;index"`
	RecipientID uint64    `gorm:"not null;index:idx_recipient_created,priority:1"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_recipient_created,priority:2,sort:desc"`
}

// Application is a candidate's application for a job.
// At most one row exists per (user_id, job_id).
type Application struct {
	ID              uint64            `gorm:"primaryKey;autoIncrement"`
	UserID          uint64            `gorm:"not null;uniqueIndex:idx_user_job,priority:1"`
	JobID           uint64            `gorm:"not null;uniqueIndex:idx_user_job,priority:2;index"`
	Status          ApplicationStatus `gorm:"size:16;not null;index"`
	ApplicationText string            `gorm:"type:text"`
	CreatedAt       time.Time         `gorm:"autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime"`
	Links           []ApplicationLink `gorm:"foreignKey:ApplicationID"`
}

type ApplicationLink struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	ApplicationID uint64 `gorm:"not null;index"`
	Link          string `gorm:"size:512;not null"`
}

// Report flags a user, job or message for moderation.
// A reporter may report the same item only once.
type Report struct {
	ID           uint64       `gorm:"primaryKey;autoIncrement"`
	UserID       uint64       `gorm:"not null;uniqueIndex:idx_reporter_target,priority:1"`
	ReportedType ReportTarget `gorm:"size:16;not null;uniqueIndex:idx_reporter_target,priority:2"`
	ReportedID   uint64       `gorm:"not null;uniqueIndex:idx_reporter_target,priority:3"`
	Reason       string       `gorm:"size:512"`
	Resolved     bool         `gorm:"not null;default:false"`
	CreatedAt    time.Time    `gorm:"autoCreateTime"`
}

// Profile tables. The engine never reads them; they exist so that user
// deletion can clear every row that references a user.

type JobExperience struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	UserID  uint64 `gorm:"not null;index"`
	Company string `gorm:"size:128"`
	Title   string `gorm:"size:128"`
}

type Education struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	UserID uint64 `gorm:"not null;index"`
	School string `gorm:"size:128"`
	Degree string `gorm:"size:128"`
}

type Attachment struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	UserID   uint64 `gorm:"not null;index"`
	Filename string `gorm:"size:255"`
}

type UserSkill struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	UserID uint64 `gorm:"not null;index"`
	Skill  string `gorm:"size:64"`
}

// Test is a skill test authored by an employer.
type Test struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	UserID uint64 `gorm:"not null;index"`
	Title  string `gorm:"size:128"`
}

// UserTest is a candidate's result for a Test.
type UserTest struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	UserID uint64 `gorm:"not null;index"`
	TestID uint64 `gorm:"not null;index"`
	Score  int
}

// AllModels lists every table in migration order.
func AllModels() []any {
	return []any{
		&User{}, &JobAd{},
		&Swipe{}, &Match{},
		&Chat{}, &UserChat{}, &Message{},
		&Notification{},
		&Application{}, &ApplicationLink{},
		&Report{},
		&JobExperience{}, &Education{}, &Attachment{}, &UserSkill{}, &Test{}, &UserTest{},
	}
}
