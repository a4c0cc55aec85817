package main

import (
	"flag"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"sign_ops/internal/model"
)

// Seeds a development database with a catalog, a demo customer with stored
// inventory and a couple of promo codes. Safe to rerun: rows are matched by
// their natural keys.
func main() {
	dbPath := flag.String("db", "sign_ops.db", "sqlite database path")
	withDemo := flag.Bool("demo", true, "create the demo customer and inventory")
	flag.Parse()

	db, err := gorm.Open(sqlite.Open(*dbPath), &gorm.Config{})
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Customer{},
		&model.PostType{},
		&model.RiderType{},
		&model.LockboxType{},
		&model.PromoCode{},
		&model.CustomerSign{},
		&model.CustomerRider{},
		&model.CustomerLockbox{},
		&model.CustomerBrochureBox{},
	); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	seedCatalog(db)
	seedPromos(db)
	if *withDemo {
		seedDemoCustomer(db)
	}
	log.Println("seed done")
}

func seedCatalog(db *gorm.DB) {
	posts := []model.PostType{
		{Name: "Standard Post", Price: dec("35.00"), IsActive: true},
		{Name: "Premium Colonial Post", Price: dec("45.00"), IsActive: true},
		{Name: "Heavy Duty Commercial Post", Price: dec("65.00"), IsActive: true},
	}
	for _, p := range posts {
		firstOrCreate(db, &model.PostType{}, "name = ?", p.Name, &p)
	}

	riders := []model.RiderType{
		{Name: "SOLD", Price: dec("5.00"), IsActive: true},
		{Name: "PENDING", Price: dec("5.00"), IsActive: true},
		{Name: "COMING SOON", Price: dec("5.00"), IsActive: true},
		{Name: "Custom Acreage", Price: dec("8.00"), IsActive: true},
	}
	for _, r := range riders {
		firstOrCreate(db, &model.RiderType{}, "name = ?", r.Name, &r)
	}

	lockboxes := []model.LockboxType{
		{Name: "SentriLock Bluetooth", Price: dec("12.00"), IsActive: true},
		{Name: "Supra eKEY", Price: dec("12.00"), IsActive: true},
		{Name: "Combo Lockbox", Price: dec("8.00"), IsActive: true},
	}
	for _, l := range lockboxes {
		firstOrCreate(db, &model.LockboxType{}, "name = ?", l.Name, &l)
	}
}

func seedPromos(db *gorm.DB) {
	tenUses := 10
	expires := time.Now().AddDate(0, 3, 0)

	codes := []model.PromoCode{
		{
			Code:          "WELCOME10",
			DiscountType:  model.DiscountPercentage,
			DiscountValue: dec("10"),
			IsActive:      true,
		},
		{
			Code:           "SPRING30",
			DiscountType:   model.DiscountFixed,
			DiscountValue:  dec("30.00"),
			MinOrderAmount: dec("75.00"),
			MaxUses:        &tenUses,
			ExpiresAt:      &expires,
			IsActive:       true,
		},
	}
	for _, c := range codes {
		firstOrCreate(db, &model.PromoCode{}, "code = ?", c.Code, &c)
	}
}

func seedDemoCustomer(db *gorm.DB) {
	cust := model.Customer{
		Email: "demo@example.com",
		Name:  "Demo Agent",
		Phone: "555-0100",
	}
	firstOrCreate(db, &model.Customer{}, "email = ?", cust.Email, &cust)

	var saved model.Customer
	if err := db.Where("email = ?", cust.Email).First(&saved).Error; err != nil {
		log.Fatalf("load demo customer: %v", err)
	}

	var soldRider model.RiderType
	if err := db.Where("name = ?", "SOLD").First(&soldRider).Error; err != nil {
		log.Fatalf("load SOLD rider type: %v", err)
	}
	var sentri model.LockboxType
	if err := db.Where("name LIKE ?", "SentriLock%").First(&sentri).Error; err != nil {
		log.Fatalf("load SentriLock type: %v", err)
	}

	var count int64
	db.Model(&model.CustomerSign{}).Where("customer_id = ?", saved.ID).Count(&count)
	if count > 0 {
		return
	}

	stored := []interface{}{
		&model.CustomerSign{CustomerID: saved.ID, Description: "Acme Realty panel", Quantity: 5},
		&model.CustomerRider{CustomerID: saved.ID, RiderTypeID: soldRider.ID, InStorage: true},
		&model.CustomerLockbox{CustomerID: saved.ID, LockboxTypeID: sentri.ID, Code: "4821", InStorage: true},
		&model.CustomerBrochureBox{CustomerID: saved.ID, Quantity: 2},
	}
	for _, rec := range stored {
		if err := db.Create(rec).Error; err != nil {
			log.Fatalf("create demo inventory: %v", err)
		}
	}
}

func firstOrCreate(db *gorm.DB, probe interface{}, query string, arg interface{}, create interface{}) {
	var count int64
	if err := db.Model(probe).Where(query, arg).Count(&count).Error; err != nil {
		log.Fatalf("probe %q: %v", query, err)
	}
	if count > 0 {
		return
	}
	if err := db.Create(create).Error; err != nil {
		log.Fatalf("create %q: %v", query, err)
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
