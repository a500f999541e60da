package entity

// Curated lexicons for the travel domain. Terms are stored normalised
// (lowercase); multi-word terms are matched as token bigrams. Confidence
// reflects match specificity: gazetteer hits are certain, lexicon hits are
// strong hints, tag-derived entities are weak hints.

type lexiconEntry struct {
	Type       Type
	Confidence float64
}

// gazetteer lists place names recognised in running text. A post's own
// location/country fields are seeded separately at confidence 1.0.
var gazetteer = map[string]lexiconEntry{
	"bangkok":       {TypePlace, 1.0},
	"chiang mai":    {TypePlace, 1.0},
	"phuket":        {TypePlace, 1.0},
	"thailand":      {TypePlace, 1.0},
	"hanoi":         {TypePlace, 1.0},
	"saigon":        {TypePlace, 1.0},
	"vietnam":       {TypePlace, 1.0},
	"tokyo":         {TypePlace, 1.0},
	"kyoto":         {TypePlace, 1.0},
	"osaka":         {TypePlace, 1.0},
	"japan":         {TypePlace, 1.0},
	"berlin":        {TypePlace, 1.0},
	"munich":        {TypePlace, 1.0},
	"hamburg":       {TypePlace, 1.0},
	"germany":       {TypePlace, 1.0},
	"deutschland":   {TypePlace, 1.0},
	"lisbon":        {TypePlace, 1.0},
	"porto":         {TypePlace, 1.0},
	"portugal":      {TypePlace, 1.0},
	"barcelona":     {TypePlace, 1.0},
	"madrid":        {TypePlace, 1.0},
	"spain":         {TypePlace, 1.0},
	"rome":          {TypePlace, 1.0},
	"florence":      {TypePlace, 1.0},
	"italy":         {TypePlace, 1.0},
	"paris":         {TypePlace, 1.0},
	"france":        {TypePlace, 1.0},
	"bali":          {TypePlace, 1.0},
	"jakarta":       {TypePlace, 1.0},
	"indonesia":     {TypePlace, 1.0},
	"kathmandu":     {TypePlace, 1.0},
	"nepal":         {TypePlace, 1.0},
	"marrakech":     {TypePlace, 1.0},
	"morocco":       {TypePlace, 1.0},
	"istanbul":      {TypePlace, 1.0},
	"mexico city":   {TypePlace, 1.0},
	"oaxaca":        {TypePlace, 1.0},
	"mexico":        {TypePlace, 1.0},
	"lima":          {TypePlace, 1.0},
	"cusco":         {TypePlace, 1.0},
	"peru":          {TypePlace, 1.0},
	"buenos aires":  {TypePlace, 1.0},
	"argentina":     {TypePlace, 1.0},
	"cape town":     {TypePlace, 1.0},
	"south africa":  {TypePlace, 1.0},
	"new york":      {TypePlace, 1.0},
	"san francisco": {TypePlace, 1.0},
	"singapore":     {TypePlace, 1.0},
	"seoul":         {TypePlace, 1.0},
	"taipei":        {TypePlace, 1.0},
	"vienna":        {TypePlace, 1.0},
	"prague":        {TypePlace, 1.0},
	"budapest":      {TypePlace, 1.0},
	"amsterdam":     {TypePlace, 1.0},
	"copenhagen":    {TypePlace, 1.0},
}

// lexicon covers foods, activities, cultural terms, transport, and
// organisations spotted in running text.
var lexicon = map[string]lexiconEntry{
	// food
	"street food":  {TypeFood, 0.8},
	"pad thai":     {TypeFood, 0.8},
	"tom yum":      {TypeFood, 0.8},
	"pho":          {TypeFood, 0.7},
	"banh mi":      {TypeFood, 0.8},
	"ramen":        {TypeFood, 0.7},
	"sushi":        {TypeFood, 0.7},
	"tapas":        {TypeFood, 0.7},
	"paella":       {TypeFood, 0.8},
	"croissant":    {TypeFood, 0.7},
	"currywurst":   {TypeFood, 0.8},
	"pretzel":      {TypeFood, 0.7},
	"schnitzel":    {TypeFood, 0.7},
	"gelato":       {TypeFood, 0.7},
	"espresso":     {TypeFood, 0.6},
	"dumplings":    {TypeFood, 0.6},
	"curry":        {TypeFood, 0.6},
	"noodles":      {TypeFood, 0.6},
	"kebab":        {TypeFood, 0.7},
	"tacos":        {TypeFood, 0.7},
	"ceviche":      {TypeFood, 0.8},
	"night market": {TypeFood, 0.6},

	// activities
	"hiking":       {TypeActivity, 0.7},
	"trekking":     {TypeActivity, 0.7},
	"snorkeling":   {TypeActivity, 0.8},
	"diving":       {TypeActivity, 0.7},
	"scuba diving": {TypeActivity, 0.8},
	"surfing":      {TypeActivity, 0.7},
	"kayaking":     {TypeActivity, 0.8},
	"climbing":     {TypeActivity, 0.6},
	"cycling":      {TypeActivity, 0.6},
	"camping":      {TypeActivity, 0.6},
	"safari":       {TypeActivity, 0.7},
	"sightseeing":  {TypeActivity, 0.6},
	"island hopping": {TypeActivity, 0.8},
	"road trip":      {TypeActivity, 0.7},
	"backpacking":    {TypeActivity, 0.7},

	// cultural
	"temple":     {TypeCultural, 0.6},
	"pagoda":     {TypeCultural, 0.7},
	"cathedral":  {TypeCultural, 0.7},
	"mosque":     {TypeCultural, 0.7},
	"museum":     {TypeCultural, 0.6},
	"monastery":  {TypeCultural, 0.7},
	"festival":   {TypeCultural, 0.6},
	"carnival":   {TypeCultural, 0.7},
	"flamenco":   {TypeCultural, 0.8},
	"oktoberfest": {TypeCultural, 0.8},
	"songkran":    {TypeCultural, 0.8},
	"old town":    {TypeCultural, 0.6},
	"unesco":      {TypeCultural, 0.7},

	// transport
	"motorbike":     {TypeTransport, 0.7},
	"scooter":       {TypeTransport, 0.7},
	"tuk tuk":       {TypeTransport, 0.8},
	"night train":   {TypeTransport, 0.8},
	"sleeper train": {TypeTransport, 0.8},
	"ferry":         {TypeTransport, 0.7},
	"cable car":     {TypeTransport, 0.8},
	"rickshaw":      {TypeTransport, 0.8},
	"campervan":     {TypeTransport, 0.7},
	"longtail boat": {TypeTransport, 0.8},

	// organisations
	"airbnb":       {TypeOrganization, 0.8},
	"couchsurfing": {TypeOrganization, 0.8},
	"ryanair":      {TypeOrganization, 0.8},
	"lufthansa":    {TypeOrganization, 0.8},
	"easyjet":      {TypeOrganization, 0.8},
	"airasia":      {TypeOrganization, 0.8},
	"deutsche bahn": {TypeOrganization, 0.8},
	"flixbus":       {TypeOrganization, 0.8},
	"grab":          {TypeOrganization, 0.6},
	"hostelworld":   {TypeOrganization, 0.8},
}

// tagTypeMap infers an entity type from a post tag. Unknown tags default to
// TypeCultural.
var tagTypeMap = map[string]Type{
	"food":        TypeFood,
	"foodie":      TypeFood,
	"cuisine":     TypeFood,
	"streetfood":  TypeFood,
	"restaurants": TypeFood,
	"hiking":      TypeActivity,
	"trekking":    TypeActivity,
	"adventure":   TypeActivity,
	"outdoors":    TypeActivity,
	"diving":      TypeActivity,
	"surfing":     TypeActivity,
	"beach":       TypePlace,
	"city":        TypePlace,
	"islands":     TypePlace,
	"mountains":   TypePlace,
	"transport":   TypeTransport,
	"trains":      TypeTransport,
	"flights":     TypeTransport,
	"airlines":    TypeOrganization,
	"hotels":      TypeOrganization,
	"hostels":     TypeOrganization,
}

const tagConfidence = 0.5
