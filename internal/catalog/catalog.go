package catalog

import (
	"fmt"
	"sort"
	"strings"

	"checkazure/internal/domain"
)

// GenericMode is the mode whose recipe is taken from caller arguments
// instead of the table.
const GenericMode = "generic"

// Family groups modes sharing one Azure resource provider type.
type Family struct {
	// Name is the mode prefix, e.g. "VMSS".
	Name string

	Description string

	// providerType may contain a single %s that is replaced with the
	// caller-supplied qualifier (scale set or server name).
	providerType string
	qualified    bool
}

// Qualified reports whether the provider type needs a qualifier (-e).
func (f *Family) Qualified() bool { return f.qualified }

// ProviderType returns the provider path with qualifier substituted.
func (f *Family) ProviderType(qualifier string) string {
	if !f.qualified {
		return f.providerType
	}
	return fmt.Sprintf(f.providerType, qualifier)
}

var (
	familyVM = &Family{
		Name:         "VM",
		Description:  "Virtual machines",
		providerType: "Microsoft.Compute/VirtualMachines",
	}
	familyVMSS = &Family{
		Name:         "VMSS",
		Description:  "Virtual machine scale sets",
		providerType: "Microsoft.Compute/virtualMachineScaleSets",
	}
	familyVMSSVM = &Family{
		Name:         "VMSSVM",
		Description:  "Virtual machines inside a scale set (-e scale set name)",
		providerType: "Microsoft.Compute/virtualMachineScaleSets/%s/virtualMachines",
		qualified:    true,
	}
	familyMySQL = &Family{
		Name:         "MYSQL",
		Description:  "Azure Database for MySQL servers",
		providerType: "Microsoft.DBforMySQL/servers",
	}
	familyPostgreSQL = &Family{
		Name:         "PGSQL",
		Description:  "Azure Database for PostgreSQL servers",
		providerType: "Microsoft.DBforPostgreSQL/servers",
	}
	familyIoTHub = &Family{
		Name:         "IOT",
		Description:  "IoT hubs",
		providerType: "Microsoft.Devices/IotHubs",
	}
	familySQLDatabase = &Family{
		Name:         "SQL",
		Description:  "SQL databases (-e server name)",
		providerType: "Microsoft.Sql/servers/%s/databases",
		qualified:    true,
	}
	familyElasticPool = &Family{
		Name:         "EP",
		Description:  "SQL elastic pools (-e server name)",
		providerType: "Microsoft.Sql/servers/%s/elasticPools",
		qualified:    true,
	}
	familyRedis = &Family{
		Name:         "REDIS",
		Description:  "Azure Cache for Redis",
		providerType: "Microsoft.Cache/redis",
	}
)

// Families lists every provider family in display order.
var Families = []*Family{
	familyVM,
	familyVMSS,
	familyVMSSVM,
	familyMySQL,
	familyPostgreSQL,
	familyIoTHub,
	familySQLDatabase,
	familyElasticPool,
	familyRedis,
}

type entry struct {
	family      *Family
	unit        string
	aggregation Aggregation
	metric      string
}

// modes is the mode table. Mode strings are referenced by monitoring
// configurations and must not be renamed.
var modes = map[string]entry{
	"VM.PercentageCPU":   {familyVM, "%", AggregationAverage, "Percentage CPU"},
	"VM.NetworkIn":       {familyVM, "b", AggregationTotal, "Network In"},
	"VM.NetworkOut":      {familyVM, "b", AggregationTotal, "Network Out"},
	"VM.BytesRead":       {familyVM, "b", AggregationTotal, "Disk Read Bytes"},
	"VM.BytesWritten":    {familyVM, "b", AggregationTotal, "Disk Write Bytes"},
	"VM.WriteOperations": {familyVM, "PerSecond", AggregationAverage, "Disk Write Operations/Sec"},
	"VM.ReadOperations":  {familyVM, "PerSecond", AggregationAverage, "Disk Read Operations/Sec"},

	"VMSS.PercentageCPU":   {familyVMSS, "%", AggregationAverage, "Percentage CPU"},
	"VMSS.NetworkIn":       {familyVMSS, "b", AggregationTotal, "Network In"},
	"VMSS.NetworkOut":      {familyVMSS, "b", AggregationTotal, "Network Out"},
	"VMSS.BytesRead":       {familyVMSS, "b", AggregationTotal, "Disk Read Bytes"},
	"VMSS.BytesWritten":    {familyVMSS, "b", AggregationTotal, "Disk Write Bytes"},
	"VMSS.WriteOperations": {familyVMSS, "PerSecond", AggregationAverage, "Disk Write Operations/Sec"},
	"VMSS.ReadOperations":  {familyVMSS, "PerSecond", AggregationAverage, "Disk Read Operations/Sec"},

	"VMSSVM.PercentageCPU":   {familyVMSSVM, "%", AggregationAverage, "Percentage CPU"},
	"VMSSVM.NetworkIn":       {familyVMSSVM, "b", AggregationTotal, "Network In"},
	"VMSSVM.NetworkOut":      {familyVMSSVM, "b", AggregationTotal, "Network Out"},
	"VMSSVM.BytesRead":       {familyVMSSVM, "b", AggregationTotal, "Disk Read Bytes"},
	"VMSSVM.BytesWritten":    {familyVMSSVM, "b", AggregationTotal, "Disk Write Bytes"},
	"VMSSVM.WriteOperations": {familyVMSSVM, "PerSecond", AggregationAverage, "Disk Write Operations/Sec"},
	"VMSSVM.ReadOperations":  {familyVMSSVM, "PerSecond", AggregationAverage, "Disk Read Operations/Sec"},

	"MYSQL.cpu_percent":                 {familyMySQL, "%", AggregationAverage, "cpu_percent"},
	"MYSQL.compute_limit":               {familyMySQL, "", AggregationAverage, "compute_limit"},
	"MYSQL.compute_consumption_percent": {familyMySQL, "%", AggregationAverage, "compute_consumption_percent"},
	"MYSQL.memory_percent":              {familyMySQL, "%", AggregationAverage, "memory_percent"},
	"MYSQL.io_consumption_percent":      {familyMySQL, "%", AggregationAverage, "io_consumption_percent"},
	"MYSQL.storage_percent":             {familyMySQL, "%", AggregationAverage, "storage_percent"},
	"MYSQL.storage_used":                {familyMySQL, "b", AggregationAverage, "storage_used"},
	"MYSQL.storage_limit":               {familyMySQL, "b", AggregationAverage, "storage_limit"},
	"MYSQL.active_connections":          {familyMySQL, "", AggregationAverage, "active_connections"},
	"MYSQL.connections_failed":          {familyMySQL, "", AggregationAverage, "connections_failed"},

	"PGSQL.cpu_percent":                 {familyPostgreSQL, "%", AggregationAverage, "cpu_percent"},
	"PGSQL.compute_limit":               {familyPostgreSQL, "", AggregationAverage, "compute_limit"},
	"PGSQL.compute_consumption_percent": {familyPostgreSQL, "%", AggregationAverage, "compute_consumption_percent"},
	"PGSQL.memory_percent":              {familyPostgreSQL, "%", AggregationAverage, "memory_percent"},
	"PGSQL.io_consumption_percent":      {familyPostgreSQL, "%", AggregationAverage, "io_consumption_percent"},
	"PGSQL.storage_percent":             {familyPostgreSQL, "%", AggregationAverage, "storage_percent"},
	"PGSQL.storage_used":                {familyPostgreSQL, "b", AggregationAverage, "storage_used"},
	"PGSQL.storage_limit":               {familyPostgreSQL, "b", AggregationAverage, "storage_limit"},
	"PGSQL.active_connections":          {familyPostgreSQL, "", AggregationAverage, "active_connections"},
	"PGSQL.connections_failed":          {familyPostgreSQL, "", AggregationAverage, "connections_failed"},

	"IOT.d2c.telemetry.ingress.allProtocol":      {familyIoTHub, "", AggregationTotal, "d2c.telemetry.ingress.allProtocol"},
	"IOT.d2c.telemetry.ingress.success":          {familyIoTHub, "", AggregationTotal, "d2c.telemetry.ingress.success"},
	"IOT.c2d.commands.egress.complete.success":   {familyIoTHub, "", AggregationTotal, "c2d.commands.egress.complete.success"},
	"IOT.c2d.commands.egress.abandon.success":    {familyIoTHub, "", AggregationTotal, "c2d.commands.egress.abandon.success"},
	"IOT.c2d.commands.egress.reject.success":     {familyIoTHub, "", AggregationTotal, "c2d.commands.egress.reject.success"},
	"IOT.devices.totalDevices":                   {familyIoTHub, "", AggregationTotal, "devices.totalDevices"},
	"IOT.devices.connectedDevices.allProtocol":   {familyIoTHub, "", AggregationTotal, "devices.connectedDevices.allProtocol"},
	"IOT.d2c.telemetry.egress.success":           {familyIoTHub, "", AggregationTotal, "d2c.telemetry.egress.success"},
	"IOT.d2c.telemetry.egress.dropped":           {familyIoTHub, "", AggregationTotal, "d2c.telemetry.egress.dropped"},
	"IOT.d2c.telemetry.egress.orphaned":          {familyIoTHub, "", AggregationTotal, "d2c.telemetry.egress.orphaned"},
	"IOT.d2c.telemetry.egress.invalid":           {familyIoTHub, "", AggregationTotal, "d2c.telemetry.egress.invalid"},
	"IOT.d2c.telemetry.egress.fallback":          {familyIoTHub, "", AggregationTotal, "d2c.telemetry.egress.fallback"},
	"IOT.d2c.endpoints.egress.eventHubs":         {familyIoTHub, "", AggregationTotal, "d2c.endpoints.egress.eventHubs"},
	"IOT.d2c.endpoints.latency.eventHubs":        {familyIoTHub, "ms", AggregationAverage, "d2c.endpoints.latency.eventHubs"},
	"IOT.d2c.endpoints.egress.serviceBusQueues":  {familyIoTHub, "", AggregationTotal, "d2c.endpoints.egress.serviceBusQueues"},
	"IOT.d2c.endpoints.latency.serviceBusQueues": {familyIoTHub, "ms", AggregationAverage, "d2c.endpoints.latency.serviceBusQueues"},
	"IOT.d2c.endpoints.egress.serviceBusTopics":  {familyIoTHub, "", AggregationTotal, "d2c.endpoints.egress.serviceBusTopics"},
	"IOT.d2c.endpoints.latency.serviceBusTopics": {familyIoTHub, "ms", AggregationAverage, "d2c.endpoints.latency.serviceBusTopics"},
	"IOT.d2c.endpoints.egress.builtIn.events":    {familyIoTHub, "", AggregationTotal, "d2c.endpoints.egress.builtIn.events"},
	"IOT.d2c.endpoints.latency.builtIn.events":   {familyIoTHub, "ms", AggregationAverage, "d2c.endpoints.latency.builtIn.events"},
	"IOT.d2c.twin.read.success":                  {familyIoTHub, "", AggregationTotal, "d2c.twin.read.success"},
	"IOT.d2c.twin.read.failure":                  {familyIoTHub, "", AggregationTotal, "d2c.twin.read.failure"},
	"IOT.d2c.twin.read.size":                     {familyIoTHub, "b", AggregationAverage, "d2c.twin.read.size"},
	"IOT.d2c.twin.update.success":                {familyIoTHub, "", AggregationTotal, "d2c.twin.update.success"},
	"IOT.d2c.twin.update.failure":                {familyIoTHub, "", AggregationTotal, "d2c.twin.update.failure"},
	"IOT.d2c.twin.update.size":                   {familyIoTHub, "b", AggregationAverage, "d2c.twin.update.size"},
	"IOT.c2d.methods.success":                    {familyIoTHub, "", AggregationTotal, "c2d.methods.success"},
	"IOT.c2d.methods.failure":                    {familyIoTHub, "", AggregationTotal, "c2d.methods.failure"},
	"IOT.c2d.methods.requestSize":                {familyIoTHub, "b", AggregationAverage, "c2d.methods.requestSize"},
	"IOT.c2d.methods.responseSize":               {familyIoTHub, "b", AggregationAverage, "c2d.methods.responseSize"},
	"IOT.c2d.twin.read.success":                  {familyIoTHub, "", AggregationTotal, "c2d.twin.read.success"},
	"IOT.c2d.twin.read.failure":                  {familyIoTHub, "", AggregationTotal, "c2d.twin.read.failure"},
	"IOT.c2d.twin.read.size":                     {familyIoTHub, "b", AggregationAverage, "c2d.twin.read.size"},
	"IOT.c2d.twin.update.success":                {familyIoTHub, "", AggregationTotal, "c2d.twin.update.success"},
	"IOT.c2d.twin.update.failure":                {familyIoTHub, "", AggregationTotal, "c2d.twin.update.failure"},
	"IOT.c2d.twin.update.size":                   {familyIoTHub, "b", AggregationAverage, "c2d.twin.update.size"},
	"IOT.twinQueries.success":                    {familyIoTHub, "", AggregationTotal, "twinQueries.success"},
	"IOT.twinQueries.failure":                    {familyIoTHub, "", AggregationTotal, "twinQueries.failure"},
	"IOT.twinQueries.resultSize":                 {familyIoTHub, "b", AggregationAverage, "twinQueries.resultSize"},
	"IOT.jobs.createTwinUpdateJob.success":       {familyIoTHub, "", AggregationTotal, "jobs.createTwinUpdateJob.success"},
	"IOT.jobs.createTwinUpdateJob.failure":       {familyIoTHub, "", AggregationTotal, "jobs.createTwinUpdateJob.failure"},
	"IOT.jobs.createDirectMethodJob.success":     {familyIoTHub, "", AggregationTotal, "jobs.createDirectMethodJob.success"},
	"IOT.jobs.createDirectMethodJob.failure":     {familyIoTHub, "", AggregationTotal, "jobs.createDirectMethodJob.failure"},
	"IOT.jobs.listJobs.success":                  {familyIoTHub, "", AggregationTotal, "jobs.listJobs.success"},
	"IOT.jobs.listJobs.failure":                  {familyIoTHub, "", AggregationTotal, "jobs.listJobs.failure"},
	"IOT.jobs.cancelJob.success":                 {familyIoTHub, "", AggregationTotal, "jobs.cancelJob.success"},
	"IOT.jobs.cancelJob.failure":                 {familyIoTHub, "", AggregationTotal, "jobs.cancelJob.failure"},
	"IOT.jobs.queryJobs.success":                 {familyIoTHub, "", AggregationTotal, "jobs.queryJobs.success"},
	"IOT.jobs.queryJobs.failure":                 {familyIoTHub, "", AggregationTotal, "jobs.queryJobs.failure"},
	"IOT.jobs.completed":                         {familyIoTHub, "", AggregationTotal, "jobs.completed"},
	"IOT.jobs.failed":                            {familyIoTHub, "", AggregationTotal, "jobs.failed"},
	"IOT.d2c.telemetry.ingress.sendThrottle":     {familyIoTHub, "", AggregationTotal, "d2c.telemetry.ingress.sendThrottle"},
	"IOT.dailyMessageQuotaUsed":                  {familyIoTHub, "", AggregationAverage, "dailyMessageQuotaUsed"},

	"SQL.cpu_percent":                {familySQLDatabase, "%", AggregationAverage, "cpu_percent"},
	"SQL.physical_data_read_percent": {familySQLDatabase, "%", AggregationAverage, "physical_data_read_percent"},
	"SQL.log_write_percent":          {familySQLDatabase, "%", AggregationAverage, "log_write_percent"},
	"SQL.dtu_consumption_percent":    {familySQLDatabase, "%", AggregationAverage, "dtu_consumption_percent"},
	"SQL.storage":                    {familySQLDatabase, "b", AggregationMaximum, "storage"},
	"SQL.connection_successful":      {familySQLDatabase, "", AggregationTotal, "connection_successful"},
	"SQL.connection_failed":          {familySQLDatabase, "", AggregationTotal, "connection_failed"},
	"SQL.blocked_by_firewall":        {familySQLDatabase, "", AggregationTotal, "blocked_by_firewall"},
	"SQL.deadlock":                   {familySQLDatabase, "", AggregationTotal, "deadlock"},
	"SQL.storage_percent":            {familySQLDatabase, "%", AggregationMaximum, "storage_percent"},
	"SQL.xtp_storage_percent":        {familySQLDatabase, "%", AggregationAverage, "xtp_storage_percent"},
	"SQL.workers_percent":            {familySQLDatabase, "%", AggregationAverage, "workers_percent"},
	"SQL.sessions_percent":           {familySQLDatabase, "%", AggregationAverage, "sessions_percent"},
	"SQL.dtu_limit":                  {familySQLDatabase, "", AggregationAverage, "dtu_limit"},
	"SQL.dtu_used":                   {familySQLDatabase, "", AggregationAverage, "dtu_used"},
	"SQL.dwu_limit":                  {familySQLDatabase, "", AggregationMaximum, "dwu_limit"},
	"SQL.dwu_consumption_percent":    {familySQLDatabase, "%", AggregationMaximum, "dwu_consumption_percent"},
	"SQL.dwu_used":                   {familySQLDatabase, "", AggregationMaximum, "dwu_used"},

	"EP.cpu_percent":                {familyElasticPool, "%", AggregationAverage, "cpu_percent"},
	"EP.physical_data_read_percent": {familyElasticPool, "%", AggregationAverage, "physical_data_read_percent"},
	"EP.log_write_percent":          {familyElasticPool, "%", AggregationAverage, "log_write_percent"},
	"EP.dtu_consumption_percent":    {familyElasticPool, "%", AggregationAverage, "dtu_consumption_percent"},
	"EP.storage_percent":            {familyElasticPool, "%", AggregationAverage, "storage_percent"},
	"EP.workers_percent":            {familyElasticPool, "%", AggregationAverage, "workers_percent"},
	"EP.sessions_percent":           {familyElasticPool, "%", AggregationAverage, "sessions_percent"},
	"EP.eDTU_limit":                 {familyElasticPool, "", AggregationAverage, "eDTU_limit"},
	"EP.storage_limit":              {familyElasticPool, "b", AggregationAverage, "storage_limit"},
	"EP.eDTU_used":                  {familyElasticPool, "", AggregationAverage, "eDTU_used"},
	"EP.storage_used":               {familyElasticPool, "b", AggregationAverage, "storage_used"},
	"EP.xtp_storage_percent":        {familyElasticPool, "%", AggregationAverage, "xtp_storage_percent"},

	"REDIS.connectedclients":       {familyRedis, "", AggregationMaximum, "connectedclients"},
	"REDIS.totalcommandsprocessed": {familyRedis, "", AggregationTotal, "totalcommandsprocessed"},
	"REDIS.cachehits":              {familyRedis, "", AggregationTotal, "cachehits"},
	"REDIS.cachemisses":            {familyRedis, "", AggregationTotal, "cachemisses"},
	"REDIS.getcommands":            {familyRedis, "", AggregationTotal, "getcommands"},
	"REDIS.setcommands":            {familyRedis, "", AggregationTotal, "setcommands"},
	"REDIS.evictedkeys":            {familyRedis, "", AggregationTotal, "evictedkeys"},
	"REDIS.totalkeys":              {familyRedis, "", AggregationMaximum, "totalkeys"},
	"REDIS.expiredkeys":            {familyRedis, "", AggregationTotal, "expiredkeys"},
	"REDIS.usedmemory":             {familyRedis, "b", AggregationMaximum, "usedmemory"},
	"REDIS.usedmemoryRss":          {familyRedis, "b", AggregationMaximum, "usedmemoryRss"},
	"REDIS.serverLoad":             {familyRedis, "%", AggregationMaximum, "serverLoad"},
	"REDIS.cacheWrite":             {familyRedis, "BPerSecond", AggregationMaximum, "cacheWrite"},
	"REDIS.cacheRead":              {familyRedis, "BPerSecond", AggregationMaximum, "cacheRead"},
	"REDIS.percentProcessorTime":   {familyRedis, "%", AggregationMaximum, "percentProcessorTime"},
}

// GenericArgs carries the caller-supplied recipe for the generic mode.
type GenericArgs struct {
	ProviderType string
	Unit         string
	Aggregation  string
	MetricName   string
}

// Options are the caller inputs that influence resolution.
type Options struct {
	// Qualifier is substituted into qualified provider types (-e).
	Qualifier string

	Generic GenericArgs
}

// Resolve returns the recipe for mode. It fails with domain.ErrUnknownMode
// for modes outside the table, and with domain.ErrMissingArgument when the
// generic mode or a qualified family lacks a required value.
func Resolve(mode string, opts Options) (Recipe, error) {
	if mode == GenericMode {
		return resolveGeneric(opts.Generic)
	}

	e, ok := modes[mode]
	if !ok {
		return Recipe{}, fmt.Errorf("mode %s does not exist: %w", mode, domain.ErrUnknownMode)
	}

	qualifier := strings.TrimSpace(opts.Qualifier)
	if e.family.qualified && qualifier == "" {
		return Recipe{}, fmt.Errorf("mode %s needs the -e extra provider argument: %w", mode, domain.ErrMissingArgument)
	}

	return Recipe{
		ProviderType: e.family.ProviderType(qualifier),
		Unit:         e.unit,
		Aggregation:  e.aggregation,
		MetricName:   e.metric,
	}, nil
}

func resolveGeneric(args GenericArgs) (Recipe, error) {
	switch {
	case strings.TrimSpace(args.ProviderType) == "":
		return Recipe{}, fmt.Errorf("missing the -p provider argument: %w", domain.ErrMissingArgument)
	case strings.TrimSpace(args.Aggregation) == "":
		return Recipe{}, fmt.Errorf("missing the -a aggregation argument: %w", domain.ErrMissingArgument)
	case strings.TrimSpace(args.MetricName) == "":
		return Recipe{}, fmt.Errorf("missing the -M metric argument: %w", domain.ErrMissingArgument)
	}

	agg, err := ParseAggregation(args.Aggregation)
	if err != nil {
		return Recipe{}, err
	}

	return Recipe{
		ProviderType: strings.Trim(strings.TrimSpace(args.ProviderType), "/"),
		Unit:         args.Unit,
		Aggregation:  agg,
		MetricName:   args.MetricName,
	}, nil
}

// Entry describes one catalog mode for listing.
type Entry struct {
	Mode         string      `json:"mode"`
	Family       string      `json:"family"`
	ProviderType string      `json:"provider_type"`
	Qualified    bool        `json:"qualified"`
	Unit         string      `json:"unit"`
	Aggregation  Aggregation `json:"aggregation"`
	MetricName   string      `json:"metric_name"`
}

// Modes returns every table mode in sorted order. The generic mode is not
// included.
func Modes() []string {
	names := make([]string, 0, len(modes))
	for name := range modes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns the catalog sorted by mode. Qualified provider types are
// shown with a "{name}" placeholder.
func Entries() []Entry {
	names := Modes()
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		e := modes[name]
		entries = append(entries, Entry{
			Mode:         name,
			Family:       e.family.Name,
			ProviderType: e.family.ProviderType("{name}"),
			Qualified:    e.family.qualified,
			Unit:         e.unit,
			Aggregation:  e.aggregation,
			MetricName:   e.metric,
		})
	}
	return entries
}

// LookupFamily returns the family with the given name (case-insensitive),
// or nil if none matches.
func LookupFamily(name string) *Family {
	for _, f := range Families {
		if strings.EqualFold(f.Name, strings.TrimSpace(name)) {
			return f
		}
	}
	return nil
}
