package database

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"

	// Load env
	_ "github.com/joho/godotenv/autoload"

	m "StudentShift-backend/internal/model"
	"StudentShift-backend/internal/utilities"
)

var testDBInstance *DBinstanceStruct
var teardown func(context.Context, ...testcontainers.TerminateOption) error

// Exported seeded accounts and listings
var (
	TestStudent1  m.User
	TestStudent2  m.User
	TestEmployer1 m.User
	TestEmployer2 m.User

	TestStudentProfile1 m.StudentProfile

	// Plain password shared by every seeded account
	TestSeedPassword = "SeedPass123"

	// TestListing1 and TestListing2 belong to TestEmployer1, TestListing3 to TestEmployer2
	TestListing1 m.Listing
	TestListing2 m.Listing
	TestListing3 m.Listing
)

// GetTestDB starts a PostgreSQL test container and returns a teardown function,
// the DB instance, and any error encountered during setup.
func GetTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, *DBinstanceStruct, error) {
	if testDBInstance != nil && teardown != nil {
		return teardown, testDBInstance, nil
	}

	// Database configuration
	var (
		dbName = "database"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:latest",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), nat.Port("5432/tcp"))
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	config := &DBConfig{
		DSN:          fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort.Port(), dbUser, dbPwd, dbName),
		MaxOpenConns: 40,
	}

	db, err := NewDBInstance(config)
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	if err := seedTestData(db); err != nil {
		_ = dbContainer.Terminate(context.Background())
		return nil, nil, err
	}

	testDBInstance = db
	teardown = dbContainer.Terminate

	return dbContainer.Terminate, db, nil
}

// seedTestData inserts two students, two employers and three listings if empty.
func seedTestData(db *DBinstanceStruct) error {
	var userCount int64
	if err := db.Model(&m.User{}).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount > 0 {
		return loadTestData(db)
	}

	hashedPwd, err := utilities.HashPassword(TestSeedPassword)
	if err != nil {
		return err
	}

	users := []m.User{
		{ID: uuid.New(), Email: "student1@example.com", Role: m.RoleStudent, FirstName: "Aoife", LastName: "Byrne"},
		{ID: uuid.New(), Email: "student2@example.com", Role: m.RoleStudent, FirstName: "Ciaran", LastName: "Doyle"},
		{ID: uuid.New(), Email: "employer1@example.com", Role: m.RoleEmployer, FirstName: "Emer", LastName: "Flynn"},
		{ID: uuid.New(), Email: "employer2@example.com", Role: m.RoleEmployer, FirstName: "Gavin", LastName: "Hayes"},
	}
	for i := range users {
		users[i].Password = hashedPwd
	}
	if err := db.Create(&users).Error; err != nil {
		return err
	}
	assignUsers(users)

	TestStudentProfile1 = m.StudentProfile{
		UserID: TestStudent1.ID,
		EditableProfileInfo: m.EditableProfileInfo{
			University: "Trinity College Dublin",
			Degree:     "BSc Computer Science",
			Skills:     pq.StringArray{"Customer service", "Barista"},
			Experience: datatypes.JSONSlice[m.Experience]{
				{Role: "Shop assistant", Company: "Corner Books", Period: "2023-2024"},
			},
		},
	}
	if err := db.Omit(clause.Associations).Create(&TestStudentProfile1).Error; err != nil {
		return err
	}

	listings := []m.Listing{
		{
			EmployerID: TestEmployer1.ID,
			Status:     m.ListingStatusActive,
			EditableListingInfo: m.EditableListingInfo{
				Title:       "Weekend Barista",
				Company:     "Bean There",
				Location:    "Dublin 2",
				SalaryMin:   13,
				SalaryMax:   15,
				Tags:        pq.StringArray{"hospitality", "weekend"},
				Description: "Serve coffee on Saturdays and Sundays.",
				Skills:      pq.StringArray{"Customer service"},
			},
		},
		{
			EmployerID: TestEmployer1.ID,
			Status:     m.ListingStatusActive,
			EditableListingInfo: m.EditableListingInfo{
				Title:       "Evening Tutor",
				Company:     "Bean There",
				Location:    "Remote",
				SalaryMin:   20,
				SalaryMax:   25,
				Tags:        pq.StringArray{"education"},
				Description: "Help secondary school students with maths.",
			},
		},
		{
			EmployerID: TestEmployer2.ID,
			Status:     m.ListingStatusActive,
			EditableListingInfo: m.EditableListingInfo{
				Title:       "Retail Assistant",
				Company:     "Hayes Hardware",
				Location:    "Cork",
				SalaryMin:   12,
				SalaryMax:   14,
				Tags:        pq.StringArray{"retail"},
				Description: "Stock shelves and run the till.",
			},
		},
	}
	if err := db.Omit(clause.Associations).Create(&listings).Error; err != nil {
		return err
	}
	TestListing1, TestListing2, TestListing3 = listings[0], listings[1], listings[2]

	return nil
}

func assignUsers(users []m.User) {
	for _, u := range users {
		switch u.Email {
		case "student1@example.com":
			TestStudent1 = u
		case "student2@example.com":
			TestStudent2 = u
		case "employer1@example.com":
			TestEmployer1 = u
		case "employer2@example.com":
			TestEmployer2 = u
		}
	}
}

// loadTestData populates exported variables when records already exist.
func loadTestData(db *DBinstanceStruct) error {
	var users []m.User
	if err := db.Where("email IN ?", []string{
		"student1@example.com", "student2@example.com", "employer1@example.com", "employer2@example.com",
	}).Find(&users).Error; err != nil {
		return err
	}
	assignUsers(users)

	_ = db.First(&TestStudentProfile1, "user_id = ?", TestStudent1.ID).Error

	var listings []m.Listing
	if err := db.Order("id ASC").Limit(3).Find(&listings).Error; err != nil {
		return err
	}
	if len(listings) > 2 {
		TestListing1, TestListing2, TestListing3 = listings[0], listings[1], listings[2]
	}
	return nil
}

// CreateTestListing inserts an active listing owned by employerID.
// Tests that assert on counters use their own listing so they do not interfere.
func CreateTestListing(db *DBinstanceStruct, employerID uuid.UUID, title string) (m.Listing, error) {
	listing := m.Listing{
		EmployerID: employerID,
		Status:     m.ListingStatusActive,
		EditableListingInfo: m.EditableListingInfo{
			Title:       title,
			Company:     "Test Co",
			Location:    "Galway",
			SalaryMin:   10,
			SalaryMax:   12,
			Description: "Test listing",
		},
	}
	err := db.Omit(clause.Associations).Create(&listing).Error
	return listing, err
}

// CreateTestUser inserts an account with TestSeedPassword.
func CreateTestUser(db *DBinstanceStruct, email, role string) (m.User, error) {
	hashedPwd, err := utilities.HashPassword(TestSeedPassword)
	if err != nil {
		return m.User{}, err
	}
	user := m.User{ID: uuid.New(), Email: m.NormalizeEmail(email), Password: hashedPwd, Role: role}
	err = db.Create(&user).Error
	return user, err
}
