package steps

import (
	"github.com/hextract/parking-net/internal/domain"
	"github.com/hextract/parking-net/internal/usecase/scenario"
)

// Catalog returns the canonical plan in execution order.
func Catalog() scenario.Plan {
	return scenario.Plan{
		// auth
		{
			Name:        "register_owner",
			Description: "Register a parking owner",
			Produces:    produces(domain.KeyOwnerToken),
			Run:         registerOwner,
		},
		{
			Name:        "register_driver",
			Description: "Register a driver",
			Produces:    produces(domain.KeyDriverToken),
			Run:         registerDriver,
		},
		{
			Name:        "register_admin_rejected",
			Description: "Self-service registration with role admin is rejected",
			Run:         registerAdminRejected,
		},
		{
			Name:        "login_owner",
			Description: "Owner logs in with the registered password",
			Requires:    requires(domain.KeyOwnerToken),
			Produces:    produces(domain.KeyOwnerToken),
			Run:         loginOwner,
		},
		{
			Name:        "login_driver",
			Description: "Driver logs in with the registered password",
			Requires:    requires(domain.KeyDriverToken),
			Produces:    produces(domain.KeyDriverToken),
			Run:         loginDriver,
		},
		{
			Name:        "current_user",
			Description: "GET /auth/me returns the driver's profile",
			Requires:    requires(domain.KeyDriverToken),
			Produces:    produces(domain.KeyDriverUserID),
			Run:         currentUser,
		},
		{
			Name:        "me_without_token",
			Description: "GET /auth/me without a credential is rejected",
			Run:         meWithoutToken,
		},
		{
			Name:        "me_with_invalid_token",
			Description: "GET /auth/me with a malformed credential is rejected",
			Run:         meWithInvalidToken,
		},

		// parking
		{
			Name:        "create_parking",
			Description: "Owner creates the primary parking place",
			Requires:    requires(domain.KeyOwnerToken),
			Produces:    produces(domain.KeyParkingID, domain.KeyParkingIDs),
			Run:         createPrimaryParking,
		},
		{
			Name:        "create_second_parking",
			Description: "Owner creates a second parking place in the same city",
			Requires:    requires(domain.KeyOwnerToken),
			Produces:    produces(domain.KeyParkingIDs),
			Run:         createSecondParking,
		},
		{
			Name:        "search_parking_by_city",
			Description: "City search returns both parking places",
			Requires:    requires(domain.KeyDriverToken, domain.KeyParkingIDs),
			Run:         searchParkingByCity,
		},
		{
			Name:        "get_parking_by_id",
			Description: "Driver reads the primary parking place",
			Requires:    requires(domain.KeyDriverToken, domain.KeyParkingID),
			Run:         getParkingByID,
		},
		{
			Name:        "search_parking_by_type",
			Description: "Type search returns only matching parking places",
			Requires:    requires(domain.KeyDriverToken),
			Run:         searchParkingByType,
		},
		{
			Name:        "update_parking",
			Description: "Owner renames the primary parking place",
			Requires:    requires(domain.KeyOwnerToken, domain.KeyParkingID),
			Run:         updateParking,
		},
		{
			Name:        "driver_cannot_create_parking",
			Description: "Drivers may not create parking places",
			Requires:    requires(domain.KeyDriverToken),
			Run:         driverCannotCreateParking,
		},
		{
			Name:        "driver_cannot_update_parking",
			Description: "Drivers may not update parking places",
			Requires:    requires(domain.KeyDriverToken, domain.KeyParkingID),
			Run:         driverCannotUpdateParking,
		},
		{
			Name:        "get_missing_parking",
			Description: "Reading an unknown parking place returns 404",
			Run:         getMissingParking,
		},
		{
			Name:        "owner_lists_own_parkings",
			Description: "Owner filter returns only the owner's parking places",
			Requires:    requires(domain.KeyOwnerToken, domain.KeyParkingIDs),
			Run:         ownerListsOwnParkings,
		},

		// booking
		{
			Name:        "create_booking",
			Description: "Driver books the primary parking place for tomorrow",
			Requires:    requires(domain.KeyDriverToken, domain.KeyParkingID),
			Produces:    produces(domain.KeyBookingIDs),
			Run:         createFirstBooking,
		},
		{
			Name:        "get_booking_by_id",
			Description: "Driver reads the booking back",
			Requires:    requires(domain.KeyDriverToken, domain.KeyBookingIDs),
			Run:         getBookingByID,
		},
		{
			Name:        "owner_lists_parking_bookings",
			Description: "Owner lists the bookings of the primary parking place",
			Requires:    requires(domain.KeyOwnerToken, domain.KeyParkingID),
			Run:         ownerListsParkingBookings,
		},
		{
			Name:        "confirm_booking_rejected",
			Description: "Confirming a booking by hand is reserved to the payment service",
			Requires:    requires(domain.KeyDriverToken, domain.KeyBookingIDs),
			Run:         confirmBookingRejected,
		},
		{
			Name:        "driver_lists_own_bookings",
			Description: "Driver filter returns only the driver's bookings",
			Requires:    requires(domain.KeyDriverToken, domain.KeyBookingIDs),
			Run:         driverListsOwnBookings,
		},
		{
			Name:        "driver_deletes_booking",
			Description: "Driver deletes a booking of their own",
			Requires:    requires(domain.KeyDriverToken, domain.KeyParkingID),
			Run:         driverDeletesBooking,
		},
		{
			Name:        "owner_deletes_parking_booking",
			Description: "Owner deletes a driver's booking at their parking place",
			Requires:    requires(domain.KeyOwnerToken, domain.KeyDriverToken, domain.KeyParkingID),
			Run:         ownerDeletesParkingBooking,
		},
		{
			Name:        "delete_missing_booking",
			Description: "Deleting an unknown booking returns 404",
			Requires:    requires(domain.KeyDriverToken),
			Run:         deleteMissingBooking,
		},

		// parking teardown
		{
			Name:        "owner_deletes_parking",
			Description: "Owner deletes a temporary parking place",
			Requires:    requires(domain.KeyOwnerToken),
			Run:         ownerDeletesParking,
		},
		{
			Name:        "driver_cannot_delete_parking",
			Description: "Drivers may not delete parking places",
			Requires:    requires(domain.KeyDriverToken, domain.KeyParkingID),
			Run:         driverCannotDeleteParking,
		},
		{
			Name:        "owner_deletes_missing_parking",
			Description: "Deleting an unknown parking place is refused",
			Requires:    requires(domain.KeyOwnerToken),
			Run:         ownerDeletesMissingParking,
		},

		// payment
		{
			Name:        "balance_without_token",
			Description: "GET /payment/balance without a credential is rejected",
			Run:         balanceWithoutToken,
		},
		{
			Name:        "driver_balance",
			Description: "Driver reads their balance",
			Requires:    requires(domain.KeyDriverToken),
			Run:         driverBalance,
		},
		{
			Name:        "provision_admin",
			Description: "Administrator account exists and logs in",
			Produces:    produces(domain.KeyAdminToken),
			Run:         provisionAdmin,
		},
		{
			Name:        "admin_creates_promocode",
			Description: "Admin creates a promocode",
			Requires:    requires(domain.KeyAdminToken),
			Produces:    produces(domain.KeyPromoCodes),
			Run:         adminCreatesPromocode,
		},
		{
			Name:        "promocode_info",
			Description: "Admin reads the promocode usage",
			Requires:    requires(domain.KeyAdminToken, domain.KeyPromoCodes),
			Run:         promocodeInfo,
		},
		{
			Name:        "driver_cannot_create_promocode",
			Description: "Drivers may not create promocodes",
			Requires:    requires(domain.KeyDriverToken),
			Run:         driverCannotCreatePromocode,
		},
		{
			Name:        "activate_unknown_promocode",
			Description: "Activating an unknown promocode is refused",
			Requires:    requires(domain.KeyDriverToken),
			Run:         activateUnknownPromocode,
		},
		{
			Name:        "activate_promocode",
			Description: "Driver activates the promocode once",
			Requires:    requires(domain.KeyDriverToken, domain.KeyPromoCodes),
			Run:         activatePromocode,
		},
		{
			Name:        "activate_expired_promocode",
			Description: "Activating an expired promocode is refused",
			Requires:    requires(domain.KeyDriverToken, domain.KeyAdminToken),
			Run:         activateExpiredPromocode,
		},
		{
			Name:        "paid_booking_and_refund",
			Description: "Immediate booking is paid on creation and refunded on delete",
			Requires:    requires(domain.KeyDriverToken, domain.KeyParkingID),
			Run:         paidBookingAndRefund,
		},
		{
			Name:        "insufficient_funds_booking",
			Description: "Immediate booking by a driver without funds is refused",
			Requires:    requires(domain.KeyParkingID),
			Run:         insufficientFundsBooking,
		},
		{
			Name:        "driver_generates_promocode",
			Description: "Driver converts part of their balance into a promocode",
			Requires:    requires(domain.KeyDriverToken),
			Produces:    produces(domain.KeyPromoCodes),
			Run:         driverGeneratesPromocode,
		},
		{
			Name:        "transactions_history",
			Description: "Transaction history lists promocode activations and generations",
			Requires:    requires(domain.KeyDriverToken),
			Run:         transactionsHistory,
		},

		// credentials
		{
			Name:        "change_password",
			Description: "Driver changes their password",
			Requires:    requires(domain.KeyDriverToken),
			Produces:    produces(domain.KeyDriverToken),
			Run:         changePassword,
		},
	}
}
