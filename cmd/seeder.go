package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Captainsparrow404/neuvii-backend/internal/identity"
	identitypg "github.com/Captainsparrow404/neuvii-backend/internal/identity/postgres"
)

// permissionCatalog is every codename the role bundles can grant.
var permissionCatalog = []string{
	"add_therapistprofile", "change_therapistprofile", "view_therapistprofile", "delete_therapistprofile",
	"add_parentprofile", "change_parentprofile", "view_parentprofile", "delete_parentprofile",
	"add_child", "change_child", "view_child", "delete_child",
	"add_goal", "change_goal", "view_goal", "delete_goal",
	"add_task", "change_task", "view_task", "delete_task",
	"add_assignment", "change_assignment", "view_assignment", "delete_assignment",
	"add_clinic", "change_clinic", "view_clinic", "delete_clinic",
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed roles, groups, permissions and the bootstrap admin",
	Long:  `Seed the role and permission catalog and create the initial system admin account.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		repo := identitypg.NewRepository(gormDB)

		for _, role := range []identity.Role{identity.RoleSystemAdmin, identity.RoleClinicAdmin, identity.RoleTherapist, identity.RoleParent} {
			if _, err := repo.EnsureRole(string(role)); err != nil {
				log.Fatalf("failed to seed role %s: %v", role, err)
			}
			if _, err := repo.EnsureGroup(role.GroupName()); err != nil {
				log.Fatalf("failed to seed group for %s: %v", role, err)
			}
		}
		fmt.Println("Seeded roles and groups")

		for _, codename := range permissionCatalog {
			perm := identity.Permission{Codename: codename}
			if err := gormDB.Where("codename = ?", codename).FirstOrCreate(&perm).Error; err != nil {
				log.Fatalf("failed to seed permission %s: %v", codename, err)
			}
		}
		fmt.Println("Seeded permission catalog")

		seedSuperuser(gormDB, repo)
	},
}

// seedSuperuser bootstraps the first system admin. Unlike provisioned
// accounts it starts Active with no forced reset.
func seedSuperuser(gormDB *gorm.DB, repo *identitypg.Repository) {
	email := os.Getenv("SEED_ADMIN_EMAIL")
	if email == "" {
		email = "admin@neuvii.com"
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "neuvii-admin"
	}

	exists, err := repo.EmailExists(email)
	if err != nil {
		log.Fatalf("failed to check admin user: %v", err)
	}
	if exists {
		fmt.Println("admin user already exists:", email)
		return
	}

	role, err := repo.EnsureRole(string(identity.RoleSystemAdmin))
	if err != nil {
		log.Fatalf("failed to resolve admin role: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash admin password: %v", err)
	}

	admin := &identity.User{
		Email:                 email,
		FirstName:             "Neuvii",
		LastName:              "Admin",
		PasswordHash:          string(hash),
		IsActive:              true,
		IsStaff:               true,
		IsSuperuser:           true,
		PasswordResetRequired: false,
		RoleID:                &role.ID,
	}
	if err := repo.Create(admin); err != nil {
		log.Fatalf("failed to create admin user: %v", err)
	}
	fmt.Println("Seeded admin user:", email)
}
