// AngelaMos | 2026
// entries.go

package activity

import "fmt"

// Constructors for the entries the application records. actorID is the
// user performing the action, or the user logging in or out.

func UserCreated(actorID, firstName, lastName, email string) Entry {
	return Entry{
		Type:        TypeUserCreated,
		Description: fmt.Sprintf("User %s %s was created", firstName, lastName),
		UserID:      actorID,
		Metadata:    Metadata{"email": email},
	}
}

func UserUpdated(actorID, userID string) Entry {
	return Entry{
		Type:        TypeUserUpdated,
		Description: "User profile was updated",
		UserID:      actorID,
		Metadata:    Metadata{"userId": userID},
	}
}

func UserDeleted(actorID, userID string) Entry {
	return Entry{
		Type:        TypeUserDeleted,
		Description: "User was deleted",
		UserID:      actorID,
		Metadata:    Metadata{"userId": userID},
	}
}

func Login(userID, email string) Entry {
	return Entry{
		Type:        TypeLogin,
		Description: "User logged in",
		UserID:      userID,
		Metadata:    Metadata{"email": email},
	}
}

func Logout(userID string) Entry {
	return Entry{
		Type:        TypeLogout,
		Description: "User logged out",
		UserID:      userID,
		Metadata:    Metadata{},
	}
}

func PasswordChanged(userID string) Entry {
	return Entry{
		Type:        TypePasswordChanged,
		Description: "Password was changed",
		UserID:      userID,
		Metadata:    Metadata{},
	}
}

func ModuleAssigned(actorID, userID, moduleID string) Entry {
	return Entry{
		Type:        TypeModuleAssigned,
		Description: "Module was assigned to user",
		UserID:      actorID,
		Metadata:    Metadata{"userId": userID, "moduleId": moduleID},
	}
}

func ModuleUnassigned(actorID, userID, moduleID string) Entry {
	return Entry{
		Type:        TypeModuleUnassigned,
		Description: "Module was unassigned from user",
		UserID:      actorID,
		Metadata:    Metadata{"userId": userID, "moduleId": moduleID},
	}
}

func PermissionChanged(actorID, userID string) Entry {
	return Entry{
		Type:        TypePermissionChanged,
		Description: "User permissions were changed",
		UserID:      actorID,
		Metadata:    Metadata{"userId": userID},
	}
}

func ModuleCreated(actorID, name string, urlSlug *string) Entry {
	meta := Metadata{"moduleName": name}
	if urlSlug != nil {
		meta["urlSlug"] = *urlSlug
	}
	return Entry{
		Type:        TypeModuleCreated,
		Description: fmt.Sprintf(`Module "%s" was created`, name),
		UserID:      actorID,
		Metadata:    meta,
	}
}

func ModuleUpdated(actorID, moduleID string) Entry {
	return moduleEntry(TypeModuleUpdated, "Module was updated", actorID, moduleID)
}

func ModuleDeactivated(actorID, moduleID string) Entry {
	return moduleEntry(TypeModuleDeactivated, "Module was deactivated", actorID, moduleID)
}

func ModuleDeleted(actorID, moduleID string) Entry {
	return moduleEntry(TypeModuleDeleted, "Module was deleted", actorID, moduleID)
}

func moduleEntry(t Type, description, actorID, moduleID string) Entry {
	return Entry{
		Type:        t,
		Description: description,
		UserID:      actorID,
		Metadata:    Metadata{"moduleId": moduleID},
	}
}
