package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"clubhub/backend/internal/model"
	"clubhub/backend/internal/repository"
	pkgerrors "clubhub/backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.StudentID
	}
	user.CreatedAt = time.Now()
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByStudentID(_ context.Context, studentID string) (*model.User, error) {
	for _, u := range m.users {
		if u.StudentID == studentID {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, filters *repository.UserListFilters, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		if filters != nil {
			if filters.Role != "" && u.Role != filters.Role {
				continue
			}
			if filters.Keyword != "" &&
				!strings.Contains(u.Name, filters.Keyword) &&
				!strings.Contains(u.StudentID, filters.Keyword) {
				continue
			}
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UserID < all[j].UserID })
	total := int64(len(all))
	if offset > len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockUserRepo) CountByRole(_ context.Context) (map[string]int64, error) {
	result := make(map[string]int64)
	for _, u := range m.users {
		result[u.Role]++
	}
	return result, nil
}

// ── Mock ClubRepository ──

type mockClubRepo struct {
	clubs map[string]*model.Club
}

func newMockClubRepo() *mockClubRepo {
	return &mockClubRepo{clubs: make(map[string]*model.Club)}
}

func (m *mockClubRepo) Create(_ context.Context, club *model.Club) error {
	if club.ClubID == "" {
		club.ClubID = "club-" + club.Name
	}
	club.CreatedAt = time.Now()
	m.clubs[club.ClubID] = club
	return nil
}

func (m *mockClubRepo) GetByID(_ context.Context, id string) (*model.Club, error) {
	if c, ok := m.clubs[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClubRepo) GetByName(_ context.Context, name string) (*model.Club, error) {
	for _, c := range m.clubs {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClubRepo) GetByHeadID(_ context.Context, headID string) (*model.Club, error) {
	for _, c := range m.clubs {
		if c.HeadID != nil && *c.HeadID == headID {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClubRepo) Update(_ context.Context, club *model.Club) error {
	m.clubs[club.ClubID] = club
	return nil
}

func (m *mockClubRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.clubs, id)
	return nil
}

func (m *mockClubRepo) List(_ context.Context, filters *repository.ClubListFilters) ([]model.Club, error) {
	var result []model.Club
	for _, c := range m.clubs {
		if filters == nil || !filters.IncludeInactive {
			if !c.IsActive {
				continue
			}
		}
		if filters != nil {
			if filters.RecruitmentStatus != "" && c.RecruitmentStatus != filters.RecruitmentStatus {
				continue
			}
			if filters.Category != "" && c.Category != filters.Category {
				continue
			}
		}
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockClubRepo) Counts(_ context.Context) (int64, int64, error) {
	var total, active int64
	for _, c := range m.clubs {
		total++
		if c.IsActive {
			active++
		}
	}
	return total, active, nil
}

// ── Mock DriveRepository ──

type mockDriveRepo struct {
	drives map[string]*model.RecruitmentDrive
	seq    int
}

func newMockDriveRepo() *mockDriveRepo {
	return &mockDriveRepo{drives: make(map[string]*model.RecruitmentDrive)}
}

func (m *mockDriveRepo) CreateWithQuestions(_ context.Context, drive *model.RecruitmentDrive, questions []model.RecruitmentQuestion) error {
	if drive.DriveID == "" {
		m.seq++
		drive.DriveID = fmt.Sprintf("drive-%d", m.seq)
	}
	drive.CreatedAt = time.Now()
	for i := range questions {
		questions[i].DriveID = drive.DriveID
		if questions[i].QuestionID == "" {
			questions[i].QuestionID = fmt.Sprintf("%s-q%d", drive.DriveID, i)
		}
	}
	drive.Questions = questions
	m.drives[drive.DriveID] = drive
	return nil
}

func (m *mockDriveRepo) GetByID(_ context.Context, id string) (*model.RecruitmentDrive, error) {
	if d, ok := m.drives[id]; ok {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDriveRepo) Update(_ context.Context, drive *model.RecruitmentDrive, questions []model.RecruitmentQuestion, replaceQuestions bool) error {
	if replaceQuestions {
		for i := range questions {
			questions[i].DriveID = drive.DriveID
			if questions[i].QuestionID == "" {
				questions[i].QuestionID = fmt.Sprintf("%s-nq%d", drive.DriveID, i)
			}
		}
		drive.Questions = questions
	}
	m.drives[drive.DriveID] = drive
	return nil
}

func (m *mockDriveRepo) DeleteWithQuestions(_ context.Context, driveID string, _ string) error {
	delete(m.drives, driveID)
	return nil
}

func (m *mockDriveRepo) ListByClub(_ context.Context, clubID string) ([]model.RecruitmentDrive, error) {
	var result []model.RecruitmentDrive
	for _, d := range m.drives {
		if d.ClubID == clubID {
			result = append(result, *d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DriveID < result[j].DriveID })
	return result, nil
}

func (m *mockDriveRepo) ListActive(_ context.Context, now time.Time) ([]model.RecruitmentDrive, error) {
	var result []model.RecruitmentDrive
	for _, d := range m.drives {
		if d.IsActive && d.Deadline.After(now) {
			result = append(result, *d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Deadline.Before(result[j].Deadline) })
	return result, nil
}

func (m *mockDriveRepo) CountByClub(_ context.Context, clubID string) (int64, error) {
	var count int64
	for _, d := range m.drives {
		if d.ClubID == clubID {
			count++
		}
	}
	return count, nil
}

func (m *mockDriveRepo) CountActive(_ context.Context, now time.Time) (int64, error) {
	var count int64
	for _, d := range m.drives {
		if d.IsActive && d.Deadline.After(now) {
			count++
		}
	}
	return count, nil
}

// ── Mock ApplicationRepository ──

// mockApplicationRepo 持有 clubs/drives 引用以模拟事务内的
// 社团成员数自增与报名窗口复核
type mockApplicationRepo struct {
	apps   map[string]*model.Application
	clubs  *mockClubRepo
	drives *mockDriveRepo
	seq    int
}

func newMockApplicationRepo(clubs *mockClubRepo, drives *mockDriveRepo) *mockApplicationRepo {
	return &mockApplicationRepo{apps: make(map[string]*model.Application), clubs: clubs, drives: drives}
}

func (m *mockApplicationRepo) Submit(_ context.Context, app *model.Application, maxApplications int, now time.Time) error {
	if d, ok := m.drives.drives[app.DriveID]; ok && !d.AcceptsAt(now) {
		return pkgerrors.ErrDriveWindowClosed
	}

	var count int64
	for _, a := range m.apps {
		if a.DriveID == app.DriveID {
			if a.ApplicantID == app.ApplicantID {
				return pkgerrors.ErrDuplicateApplication
			}
			count++
		}
	}
	if count >= int64(maxApplications) {
		return pkgerrors.ErrDriveCapacityFull
	}

	if app.ApplicationID == "" {
		m.seq++
		app.ApplicationID = fmt.Sprintf("app-%d", m.seq)
	}
	app.CreatedAt = time.Now()
	app.Version = 1
	m.apps[app.ApplicationID] = app
	return nil
}

func (m *mockApplicationRepo) GetByID(_ context.Context, id string) (*model.Application, error) {
	if a, ok := m.apps[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockApplicationRepo) GetByApplicantAndDrive(_ context.Context, applicantID, driveID string) (*model.Application, error) {
	for _, a := range m.apps {
		if a.ApplicantID == applicantID && a.DriveID == driveID {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockApplicationRepo) ListByApplicant(_ context.Context, applicantID string) ([]model.Application, error) {
	var result []model.Application
	for _, a := range m.apps {
		if a.ApplicantID == applicantID {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ApplicationID < result[j].ApplicationID })
	return result, nil
}

func (m *mockApplicationRepo) ListByClub(_ context.Context, clubID string, filters *repository.ApplicationListFilters, offset, limit int) ([]model.Application, int64, error) {
	var all []model.Application
	for _, a := range m.apps {
		if a.ClubID != clubID {
			continue
		}
		if filters != nil {
			if filters.DriveID != "" && a.DriveID != filters.DriveID {
				continue
			}
			if filters.Status != "" && a.Status != filters.Status {
				continue
			}
		}
		all = append(all, *a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ApplicationID < all[j].ApplicationID })
	total := int64(len(all))
	if offset > len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockApplicationRepo) ListByIDs(_ context.Context, ids []string) ([]model.Application, error) {
	var result []model.Application
	for _, id := range ids {
		if a, ok := m.apps[id]; ok {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockApplicationRepo) UpdateReview(_ context.Context, app *model.Application, joinClub bool) error {
	stored, ok := m.apps[app.ApplicationID]
	if !ok || stored.Version != app.Version {
		return pkgerrors.ErrOptimisticLock
	}

	if joinClub {
		club, ok := m.clubs.clubs[app.ClubID]
		if !ok || club.CurrentMembers >= club.MaxMembers {
			return pkgerrors.ErrClubCapacityFull
		}
		club.CurrentMembers++
	}

	app.Version++
	m.apps[app.ApplicationID] = app
	return nil
}

func (m *mockApplicationRepo) BulkUpdateStatus(_ context.Context, clubID string, ids []string, fromStatuses []string, status, feedback, reviewedBy string, reviewedAt time.Time) error {
	from := make(map[string]bool, len(fromStatuses))
	for _, s := range fromStatuses {
		from[s] = true
	}

	var matched []*model.Application
	for _, id := range ids {
		a, ok := m.apps[id]
		if ok && a.ClubID == clubID && from[a.Status] {
			matched = append(matched, a)
		}
	}
	if len(matched) != len(ids) {
		return pkgerrors.ErrOptimisticLock
	}

	if status == model.ApplicationAccepted {
		club, ok := m.clubs.clubs[clubID]
		if !ok || club.CurrentMembers+len(ids) > club.MaxMembers {
			return pkgerrors.ErrClubCapacityFull
		}
		club.CurrentMembers += len(ids)
	}

	for _, a := range matched {
		a.Status = status
		a.Feedback = feedback
		a.ReviewedBy = &reviewedBy
		// 首次审核时间写入后不再覆盖
		if a.ReviewedAt == nil {
			at := reviewedAt
			a.ReviewedAt = &at
		}
		a.Version++
	}
	return nil
}

func (m *mockApplicationRepo) CountByDrive(_ context.Context, driveID string) (int64, error) {
	var count int64
	for _, a := range m.apps {
		if a.DriveID == driveID {
			count++
		}
	}
	return count, nil
}

func (m *mockApplicationRepo) CountByDrives(_ context.Context, driveIDs []string) (map[string]int64, error) {
	result := make(map[string]int64, len(driveIDs))
	for _, id := range driveIDs {
		for _, a := range m.apps {
			if a.DriveID == id {
				result[id]++
			}
		}
	}
	return result, nil
}

func (m *mockApplicationRepo) CountByStatus(_ context.Context, clubID string) (map[string]int64, error) {
	result := make(map[string]int64)
	for _, a := range m.apps {
		if clubID != "" && a.ClubID != clubID {
			continue
		}
		result[a.Status]++
	}
	return result, nil
}

// ── 测试辅助 ──

type testRepos struct {
	users  *mockUserRepo
	clubs  *mockClubRepo
	drives *mockDriveRepo
	apps   *mockApplicationRepo
}

func newTestRepos() (*repository.Repository, *testRepos) {
	users := newMockUserRepo()
	clubs := newMockClubRepo()
	drives := newMockDriveRepo()
	apps := newMockApplicationRepo(clubs, drives)

	repo := &repository.Repository{
		User:        users,
		Club:        clubs,
		Drive:       drives,
		Application: apps,
	}
	return repo, &testRepos{users: users, clubs: clubs, drives: drives, apps: apps}
}
