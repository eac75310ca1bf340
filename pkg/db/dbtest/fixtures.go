package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/societyhub-backend/pkg/db/models"
)

// CreateUser inserts a user with a unique email.
func CreateUser(t testing.TB, conn *gorm.DB) models.User {
	t.Helper()
	suffix := uuid.NewString()[:8]
	user := models.User{
		Email:       fmt.Sprintf("user-%s@example.com", suffix),
		DisplayName: "User " + suffix,
	}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// CreateSociety inserts a society with the given name.
func CreateSociety(t testing.TB, conn *gorm.DB, name string) models.Society {
	t.Helper()
	society := models.Society{Name: name, Address: name + " Road"}
	if err := conn.Create(&society).Error; err != nil {
		t.Fatalf("create society: %v", err)
	}
	return society
}

// CreateResident inserts a user with a profile that belongs to the given societies.
func CreateResident(t testing.TB, conn *gorm.DB, societyIDs ...uuid.UUID) (models.User, models.Profile) {
	t.Helper()
	user := CreateUser(t, conn)
	profile := models.Profile{UserID: user.ID}
	if err := conn.Create(&profile).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}
	for _, id := range societyIDs {
		if err := conn.Create(&models.ProfileSociety{ProfileID: profile.ID, SocietyID: id}).Error; err != nil {
			t.Fatalf("add profile society: %v", err)
		}
	}
	return user, profile
}

// CreateProvider inserts a user owning an unapproved service provider listed in the given societies.
func CreateProvider(t testing.TB, conn *gorm.DB, societyIDs ...uuid.UUID) (models.User, models.ServiceProvider) {
	t.Helper()
	user := CreateUser(t, conn)
	provider := models.ServiceProvider{UserID: user.ID, Name: "Provider " + user.DisplayName}
	if err := conn.Create(&provider).Error; err != nil {
		t.Fatalf("create provider: %v", err)
	}
	for _, id := range societyIDs {
		if err := conn.Create(&models.ServiceProviderSociety{ServiceProviderID: provider.ID, SocietyID: id}).Error; err != nil {
			t.Fatalf("add provider society: %v", err)
		}
	}
	return user, provider
}

// CreateService inserts a catalogue service and links it to the given providers.
func CreateService(t testing.TB, conn *gorm.DB, name string, providerIDs ...uuid.UUID) models.Service {
	t.Helper()
	service := models.Service{Name: name}
	if err := conn.Create(&service).Error; err != nil {
		t.Fatalf("create service: %v", err)
	}
	for _, id := range providerIDs {
		if err := conn.Create(&models.ServiceProviderService{ServiceProviderID: id, ServiceID: service.ID}).Error; err != nil {
			t.Fatalf("link provider service: %v", err)
		}
	}
	return service
}
